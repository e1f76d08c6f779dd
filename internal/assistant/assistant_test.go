package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "success first try",
			errs:      []error{nil},
			retries:   1,
			wantCalls: 1,
		},
		{
			name:      "transient error retried once",
			errs:      []error{errors.New("connection reset"), nil},
			retries:   1,
			wantCalls: 2,
		},
		{
			name:      "gives up after retries",
			errs:      []error{errors.New("boom"), errors.New("boom"), errors.New("boom")},
			retries:   1,
			wantCalls: 2,
			wantErr:   true,
		},
		{
			name:      "quota error not retried",
			errs:      []error{errors.New("Error 429: RESOURCE_EXHAUSTED"), nil},
			retries:   3,
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := Retry(context.Background(), tt.retries, time.Millisecond, func() (string, error) {
				err := tt.errs[calls]
				calls++
				return "ok", err
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("googleapi: Error 429"), true},
		{errors.New("You exceeded your current quota"), true},
		{errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{errors.New("rate limit reached"), true},
		{errors.New("internal error"), false},
	}
	for _, tt := range tests {
		if got := IsQuotaError(tt.err); got != tt.want {
			t.Errorf("IsQuotaError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func fakeClient(responses ...string) (*GeminiClient, *int) {
	calls := 0
	g := &GeminiClient{model: "test", retryDelay: time.Millisecond}
	g.generate = func(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
		r := responses[calls]
		calls++
		if r == "" {
			return "", ErrEmptyResponse
		}
		return r, nil
	}
	return g, &calls
}

func TestVerseOfDayDecodesFencedJSON(t *testing.T) {
	g, _ := fakeClient("```json\n{\"verse\": \"Be still, and know that I am God.\", \"reference\": \"Psalm 46:10\"}\n```")

	verse, err := g.VerseOfDay(context.Background())
	if err != nil {
		t.Fatalf("VerseOfDay() error = %v", err)
	}
	if verse.Reference != "Psalm 46:10" {
		t.Errorf("Reference = %q, want Psalm 46:10", verse.Reference)
	}
}

func TestSermonIdeasParsesDates(t *testing.T) {
	g, _ := fakeClient(`[
		{"title": "Faith", "speaker": "Rev. Mensah", "date": "2024-03-10", "description": "On faith"},
		{"title": "Hope", "speaker": "Rev. Owusu", "date": "next Sunday", "description": "On hope"}
	]`)

	ideas, err := g.SermonIdeas(context.Background(), 5)
	if err != nil {
		t.Fatalf("SermonIdeas() error = %v", err)
	}
	if len(ideas) != 2 {
		t.Fatalf("len = %d, want 2", len(ideas))
	}
	if got := ideas[0].Date.Format("2006-01-02"); got != "2024-03-10" {
		t.Errorf("first date = %s, want 2024-03-10", got)
	}
	if ideas[1].Date.IsZero() {
		t.Error("unparseable date should fall back to a generated date")
	}
}

func TestPrayerResponseRetriesAndLimitsWords(t *testing.T) {
	long := "Stay strong in faith and trust in the Lord who hears every prayer and answers in His perfect time with love mercy grace and peace beyond understanding for you and your family today"
	g, calls := fakeClient("", long)

	reply, err := g.PrayerResponse(context.Background(), "Please pray for my exams")
	if err != nil {
		t.Fatalf("PrayerResponse() error = %v", err)
	}
	if *calls != 2 {
		t.Errorf("calls = %d, want 2", *calls)
	}
	if n := len(strings.Fields(reply)); n != MaxPrayerReplyWords {
		t.Errorf("reply has %d words, want %d", n, MaxPrayerReplyWords)
	}
}

func TestDisabled(t *testing.T) {
	var a Assistant = Disabled{}
	if a.Enabled() {
		t.Error("Disabled should not be enabled")
	}
	if _, err := a.VerseOfDay(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("VerseOfDay() err = %v, want ErrDisabled", err)
	}
	reply, err := a.PrayerResponse(context.Background(), "anything")
	if err != nil || reply != DisabledPrayerReply {
		t.Errorf("PrayerResponse() = %q, %v", reply, err)
	}
}

