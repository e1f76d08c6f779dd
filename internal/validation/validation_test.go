package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "test@example.com", wantErr: false},
		{name: "valid email with subdomain", email: "user@mail.example.com", wantErr: false},
		{name: "valid email with plus", email: "user+tag@example.com", wantErr: false},
		{name: "missing @", email: "testexample.com", wantErr: true},
		{name: "missing domain", email: "test@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "empty string", email: "", wantErr: true},
		{name: "spaces in email", email: "test @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid name", input: "John Doe", wantErr: false},
		{name: "single name", input: "John", wantErr: false},
		{name: "empty name", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "name too short", input: "J", wantErr: true},
		{name: "name with hyphen", input: "Mary-Jane", wantErr: false},
		{name: "name with apostrophe", input: "O'Brien", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "password123", wantErr: false},
		{name: "password exactly 8 characters", password: "pass1234", wantErr: false},
		{name: "password too short", password: "pass123", wantErr: true},
		{name: "empty password", password: "", wantErr: true},
		{name: "long password", password: "thisIsAVeryLongPasswordThatShouldBeValid123", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type prayerForm struct {
	Name    string `json:"name" validate:"notblank"`
	Content string `json:"content" validate:"notblank,max=2000"`
}

func TestStructUsesJSONNamesAndNotBlank(t *testing.T) {
	err := Struct(prayerForm{Name: "Ama", Content: "   "})
	if err == nil {
		t.Fatal("expected blank content to fail")
	}

	errs, ok := AsErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %T", err)
	}
	if len(errs) != 1 || errs[0].Field != "content" {
		t.Fatalf("expected one error on content, got %+v", errs)
	}
	if !strings.Contains(errs[0].Message, "content cannot be blank") {
		t.Errorf("unexpected message %q", errs[0].Message)
	}

	if err := Struct(prayerForm{Name: "Ama", Content: "Please pray for my exams"}); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}
}
