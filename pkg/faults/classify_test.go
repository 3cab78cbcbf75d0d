package faults_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/IamBlackShifu/MediTrack/pkg/faults"
)

type httpError struct {
	status  int
	message string
}

func (e httpError) Error() string   { return e.message }
func (e httpError) StatusCode() int { return e.status }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want faults.Category
	}{
		{
			name: "401 is auth",
			err:  httpError{status: 401, message: "JWT expired"},
			want: faults.CategoryAuth,
		},
		{
			name: "403 is permission",
			err:  httpError{status: 403, message: "forbidden"},
			want: faults.CategoryPermission,
		},
		{
			name: "400 with invalid is validation",
			err:  httpError{status: 400, message: "invalid input syntax for column"},
			want: faults.CategoryValidation,
		},
		{
			name: "422 is validation",
			err:  httpError{status: 422, message: "unprocessable"},
			want: faults.CategoryValidation,
		},
		{
			name: "plain 400 is api",
			err:  httpError{status: 400, message: "bad request"},
			want: faults.CategoryAPI,
		},
		{
			name: "500 is api",
			err:  httpError{status: 500, message: "internal server error"},
			want: faults.CategoryAPI,
		},
		{
			name: "network keyword",
			err:  errors.New("network request failed"),
			want: faults.CategoryNetwork,
		},
		{
			name: "connection keyword",
			err:  errors.New("connection refused"),
			want: faults.CategoryNetwork,
		},
		{
			name: "unmarshal failure is data",
			err:  errors.New("json: cannot unmarshal string into Go value"),
			want: faults.CategoryData,
		},
		{
			name: "anything else is unknown",
			err:  errors.New("something odd"),
			want: faults.CategoryUnknown,
		},
		{
			name: "existing fault keeps its category",
			err:  faults.New(faults.CategorySystem, "boom"),
			want: faults.CategorySystem,
		},
		{
			name: "wrapped status code still classifies",
			err:  fmt.Errorf("submit: %w", httpError{status: 401, message: "expired"}),
			want: faults.CategoryAuth,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := faults.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	src := httpError{status: 401, message: "JWT expired"}
	fault := faults.Normalize(src)

	if fault.ID == "" {
		t.Error("fault should get an id")
	}
	if fault.Code != 401 {
		t.Errorf("code = %d, want 401", fault.Code)
	}
	if fault.Category != faults.CategoryAuth {
		t.Errorf("category = %s", fault.Category)
	}
	var target httpError
	if !errors.As(error(fault), &target) {
		t.Error("normalized fault should unwrap to the original error")
	}

	// Normalizing twice must not mint a new id.
	again := faults.Normalize(fault)
	if again.ID != fault.ID {
		t.Errorf("id changed on re-normalize: %s vs %s", again.ID, fault.ID)
	}
}
