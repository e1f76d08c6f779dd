// Package reporting forwards server-side failures to Rollbar.
package reporting

import (
	"log"
	"net/http"

	"github.com/rollbar/rollbar-go"
)

// Reporter records unexpected errors
type Reporter interface {
	Error(err error, r *http.Request, extras map[string]interface{})
	Close()
}

// Nop only logs
type Nop struct{}

func (Nop) Error(error, *http.Request, map[string]interface{}) {}
func (Nop) Close()                                            {}

// Rollbar sends errors to Rollbar
type Rollbar struct{}

// New configures Rollbar, or returns Nop when token is empty
func New(token, environment, codeVersion string) Reporter {
	if token == "" {
		log.Println("Error reporting disabled: ROLLBAR_TOKEN not configured")
		return Nop{}
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	rollbar.SetCodeVersion(codeVersion)
	log.Printf("Error reporting enabled: rollbar environment=%s", environment)
	return Rollbar{}
}

// Error reports err with the request that caused it
func (Rollbar) Error(err error, r *http.Request, extras map[string]interface{}) {
	if r != nil {
		rollbar.Error(err, r, extras)
		return
	}
	rollbar.Error(err, extras)
}

// Close waits for queued reports to be sent
func (Rollbar) Close() {
	rollbar.Wait()
}
