package cmp

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
)

// CompareStreamWriteErr fails the test unless got carries a stream write error for wantPart whose cause is, or wraps,
// wantCause.
func CompareStreamWriteErr(t *testing.T, got error, wantPart string, wantCause error) {
	t.Helper()

	if got == nil {
		t.Fatalf("expected a stream write error (%s), got nil", wantPart)
	}

	var streamWriteError *motmedelHttpErrors.StreamWriteError
	if !errors.As(got, &streamWriteError) {
		t.Fatalf("expected a stream write error (%s), got %T: %v", wantPart, got, got)
	}

	want := &motmedelHttpErrors.StreamWriteError{Part: wantPart}
	if diff := cmp.Diff(want, streamWriteError, cmpopts.IgnoreFields(motmedelHttpErrors.StreamWriteError{}, "Cause")); diff != "" {
		t.Errorf("stream write error mismatch (-expected +got):\n%s", diff)
	}

	if !errors.Is(streamWriteError.GetCause(), wantCause) {
		t.Errorf("got cause %v, expected %v", streamWriteError.GetCause(), wantCause)
	}
}
