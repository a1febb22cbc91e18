package cli

import (
	"testing"
	"time"
)

// Signal delivery is not exercised here: the handler escalates to os.Exit
// on a second signal, and signal.Notify fans every delivery out to all
// registered channels, so a signal sent to the test process could kill the
// test binary through a handler registered by an earlier test.

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	if ctx.Done() == nil {
		t.Fatal("context has no Done channel")
	}

	select {
	case <-ctx.Done():
		t.Error("context cancelled before any signal")
	default:
	}
}

func TestSetupSignalHandlerStaysActive(t *testing.T) {
	ctx := SetupSignalHandler()

	serverDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(serverDone)
	}()

	select {
	case <-serverDone:
		t.Error("shutdown flow triggered without a signal")
	case <-time.After(10 * time.Millisecond):
	}
}
