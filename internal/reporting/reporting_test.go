package reporting

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestNewWithoutTokenIsNop(t *testing.T) {
	r := New("", "test", "dev")
	if _, ok := r.(Nop); !ok {
		t.Fatalf("New() = %T, want Nop", r)
	}
	r.Error(errors.New("boom"), httptest.NewRequest("GET", "/", nil), nil)
	r.Close()
}
