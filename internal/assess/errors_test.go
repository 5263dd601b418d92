package assess

import (
	"errors"
	"testing"
	"time"
)

func TestWindowNotOpenErrorMessage(t *testing.T) {
	err := &WindowNotOpenError{
		Action: "This quiz",
		Start:  time.Date(2025, 3, 10, 15, 4, 0, 0, time.UTC),
		End:    time.Date(2025, 3, 10, 15, 19, 0, 0, time.UTC),
	}
	want := "This quiz is only open from 3:04PM to 3:19PM"
	if got := err.Error(); got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestNotFoundWrapping(t *testing.T) {
	err := notFoundf("quiz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("notFoundf must wrap ErrNotFound")
	}
	if err.Error() != "quiz not found" {
		t.Fatalf("message = %q", err.Error())
	}
}
