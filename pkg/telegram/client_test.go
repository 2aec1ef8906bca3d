package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	ta "github.com/mymmrac/telego/telegoapi"

	"github.com/tinyland-inc/dropgram/pkg/relay"
)

func TestClassifyFlood(t *testing.T) {
	apiErr := &ta.Error{
		ErrorCode:   429,
		Description: "Too Many Requests: retry after 31",
		Parameters:  &ta.ResponseParameters{RetryAfter: 31},
	}
	got := Classify(fmt.Errorf("sending: %w", apiErr))

	var transient *relay.RetryableError
	if !errors.As(got, &transient) {
		t.Fatalf("flood error classified as %T", got)
	}
	if transient.RetryAfter != 31*time.Second {
		t.Errorf("retry after = %v, want 31s", transient.RetryAfter)
	}
}

func TestClassifyFloodWithoutParameters(t *testing.T) {
	got := Classify(&ta.Error{ErrorCode: 429, Description: "Too Many Requests"})

	var transient *relay.RetryableError
	if !errors.As(got, &transient) {
		t.Fatalf("flood error classified as %T", got)
	}
	if transient.RetryAfter != 0 {
		t.Errorf("retry after = %v, want 0", transient.RetryAfter)
	}
}

func TestClassifyPermanentAPIError(t *testing.T) {
	apiErr := &ta.Error{ErrorCode: 400, Description: "Bad Request: wrong file identifier"}
	got := Classify(apiErr)

	var transient *relay.RetryableError
	if errors.As(got, &transient) {
		t.Fatal("definitive API error must not be retryable")
	}
	var back *ta.Error
	if !errors.As(got, &back) || back.ErrorCode != 400 {
		t.Errorf("API error not passed through: %v", got)
	}
}

func TestClassifyNoResponse(t *testing.T) {
	netErr := errors.New("dial tcp: connection refused")
	got := Classify(netErr)

	var transient *relay.RetryableError
	if !errors.As(got, &transient) {
		t.Fatalf("transport failure classified as %T", got)
	}
	if transient.Err != netErr {
		t.Errorf("wrapped error = %v", transient.Err)
	}
	if transient.RetryAfter != 0 {
		t.Errorf("retry after = %v, want 0", transient.RetryAfter)
	}
}

func TestClassifyContextErrors(t *testing.T) {
	for _, err := range []error{context.Canceled, context.DeadlineExceeded} {
		got := Classify(err)
		if got != err {
			t.Errorf("Classify(%v) = %v, want passthrough", err, got)
		}
	}
}
