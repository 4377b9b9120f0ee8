package errors_test

import (
	"fmt"
	"net/http"

	"github.com/agentstation/homewire/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "flat",
		ID:       "42",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Record not found")
	}

	// Output: Record not found
}

// Example_frameError shows how a rejected push frame is inspected.
func Example_frameError() {
	err := errors.NewFrameError(4, `action "ARCHIVE"`, errors.ErrUnknownAction)

	if errors.IsInvalidFrame(err) {
		fmt.Printf("dropped at step %d\n", err.Step)
	}

	// Output: dropped at step 4
}

// Example_hTTPStatusMapping maps HTTP codes to error types.
func Example_hTTPStatusMapping() {
	mapHTTPError := func(status int, id string) error {
		switch status {
		case http.StatusNotFound:
			return errors.NewNotFoundError("house", id)
		default:
			return errors.NewAPIError("records", status, http.StatusText(status))
		}
	}

	for _, status := range []int{404, 502, 400} {
		err := mapHTTPError(status, "7")
		fmt.Printf("%d not-found=%t retry=%t\n", status, errors.IsNotFound(err), errors.IsTemporary(err))
	}

	// Output:
	// 404 not-found=true retry=false
	// 502 not-found=false retry=true
	// 400 not-found=false retry=false
}
