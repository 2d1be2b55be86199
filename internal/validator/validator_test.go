package validator

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sales-deck-generator/internal/model"
)

func validFields() model.FormFields {
	return model.FormFields{
		CompanyName:   "Acme",
		Industry:      "Tech",
		BuyerPersona:  "CTO",
		MainPainPoint: "Slow deployments",
		UseCase:       "CI/CD acceleration",
	}
}

func TestValidateAcceptsCompleteForm(t *testing.T) {
	if errs := Validate(validFields()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateMissingCompanyName(t *testing.T) {
	f := validFields()
	f.CompanyName = ""

	want := model.FieldErrors{model.FieldCompanyName: "Company name is required"}
	if diff := cmp.Diff(want, Validate(f)); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRequiredFlagsExactlyThatField(t *testing.T) {
	for _, key := range model.FieldKeys {
		for _, blank := range []string{"", "   ", "\t\n"} {
			f, _ := validFields().With(key, blank)
			errs := Validate(f)
			if len(errs) != 1 || errs[key] == "" {
				t.Errorf("%s=%q: expected a single error on %s, got %v", key, blank, key, errs)
			}
		}
	}
}

func TestValidateMaxLengthFlagsOnlyThatField(t *testing.T) {
	limits := map[string]int{
		model.FieldCompanyName:   100,
		model.FieldIndustry:      100,
		model.FieldBuyerPersona:  200,
		model.FieldMainPainPoint: 500,
		model.FieldUseCase:       500,
	}
	for key, limit := range limits {
		if MaxLength(key) != limit {
			t.Fatalf("%s: MaxLength = %d, want %d", key, MaxLength(key), limit)
		}

		atLimit, _ := validFields().With(key, strings.Repeat("a", limit))
		if errs := Validate(atLimit); len(errs) != 0 {
			t.Errorf("%s at limit: unexpected errors %v", key, errs)
		}

		over, _ := validFields().With(key, strings.Repeat("a", limit+1))
		errs := Validate(over)
		want := model.FieldErrors{key: Label(key) + " must be " + strconv.Itoa(limit) + " characters or less"}
		if diff := cmp.Diff(want, errs); diff != "" {
			t.Errorf("%s over limit (-want +got):\n%s", key, diff)
		}
	}
}

func TestValidateCountsCharactersNotBytes(t *testing.T) {
	f := validFields()
	f.CompanyName = strings.Repeat("é", 100)
	if errs := Validate(f); len(errs) != 0 {
		t.Fatalf("100 accented characters should fit, got %v", errs)
	}
}

func TestFieldRejectsUnknownKey(t *testing.T) {
	if err := Field("logo", "x"); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestValidateBlankOverLimitReportsRequired(t *testing.T) {
	f := validFields()
	f.Industry = strings.Repeat(" ", 150)

	want := model.FieldErrors{model.FieldIndustry: "Industry is required"}
	if diff := cmp.Diff(want, Validate(f)); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldMessages(t *testing.T) {
	cases := []struct {
		key, value, want string
	}{
		{model.FieldCompanyName, "Acme", ""},
		{model.FieldCompanyName, "  ", "Company name is required"},
		{model.FieldBuyerPersona, strings.Repeat("b", 201), "Buyer persona must be 200 characters or less"},
		{model.FieldUseCase, strings.Repeat("ü", 500), ""},
	}
	for _, tc := range cases {
		err := Field(tc.key, tc.value)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tc.want {
			t.Errorf("Field(%s, %.10q) = %q, want %q", tc.key, tc.value, got, tc.want)
		}
	}
}
