package terminal

import (
	"context"
	"fmt"
	"strings"

	"sales-deck-generator/internal/logo"
	"sales-deck-generator/internal/model"
	"sales-deck-generator/internal/service"
	"sales-deck-generator/internal/validator"
)

var fieldHelp = map[string]string{
	model.FieldCompanyName:   "The prospect's company",
	model.FieldIndustry:      "e.g. Tech, Healthcare, Retail",
	model.FieldBuyerPersona:  "Who you are pitching to, e.g. CTO",
	model.FieldMainPainPoint: "The problem the buyer needs solved",
	model.FieldUseCase:       "How your product addresses it",
}

var multiline = map[string]bool{
	model.FieldMainPainPoint: true,
	model.FieldUseCase:       true,
}

// Form drives a Session from the terminal: prompt for every field, optionally
// attach a logo, submit, and offer a retry when the submission fails.
type Form struct {
	driver  PromptDriver
	session *service.Session
}

func NewForm(driver PromptDriver, session *service.Session) *Form {
	return &Form{driver: driver, session: session}
}

// Run collects answers starting from prefill and returns the completed view.
func (f *Form) Run(ctx context.Context, prefill Prefill) (model.View, error) {
	defaults := prefill.FormFields
	logoPath := prefill.Logo

	for {
		if err := f.promptFields(ctx, defaults); err != nil {
			return model.View{}, err
		}
		if err := f.promptLogo(ctx, logoPath); err != nil {
			return model.View{}, err
		}

		if err := f.driver.Info(ctx, "Generating your sales deck..."); err != nil {
			return model.View{}, err
		}
		view, err := f.session.Submit(ctx)
		if err != nil {
			return view, err
		}
		if view.State == model.StateCompleted {
			return view, f.showResult(ctx, view)
		}

		if err := f.showErrors(ctx, view); err != nil {
			return view, err
		}
		retry, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Edit and try again?", Default: true})
		if err != nil {
			return view, err
		}
		if !retry {
			return view, ErrGaveUp
		}
		defaults = view.Fields
		logoPath = ""
	}
}

func (f *Form) promptFields(ctx context.Context, defaults model.FormFields) error {
	for _, key := range model.FieldKeys {
		current, _ := defaults.Get(key)
		label := fmt.Sprintf("%s (max %d characters):", validator.Label(key), validator.MaxLength(key))
		check := func(value string) error { return validator.Field(key, value) }

		var answer string
		var err error
		if multiline[key] {
			answer, err = f.promptTextArea(ctx, TextAreaConfig{
				Message:   label,
				Default:   current,
				Help:      fieldHelp[key],
				Validator: check,
			})
		} else {
			answer, err = f.driver.Input(ctx, InputConfig{
				Message:   label,
				Default:   current,
				Help:      fieldHelp[key],
				Validator: check,
			})
		}
		if err != nil {
			return err
		}
		if _, err := f.session.SetField(key, answer); err != nil {
			return err
		}
	}
	return nil
}

// promptTextArea re-asks until the answer passes cfg.Validator.
func (f *Form) promptTextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	for {
		answer, err := f.driver.TextArea(ctx, cfg)
		if err != nil {
			return "", err
		}
		if cfg.Validator == nil {
			return answer, nil
		}
		verr := cfg.Validator(answer)
		if verr == nil {
			return answer, nil
		}
		if err := f.driver.Info(ctx, verr.Error()); err != nil {
			return "", err
		}
		cfg.Default = answer
	}
}

// promptLogo attaches path when given; otherwise it offers to keep an
// attached logo, then asks for one.
func (f *Form) promptLogo(ctx context.Context, path string) error {
	if path == "" {
		if name := f.session.View().LogoName; name != "" {
			keep, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Keep logo " + name + "?", Default: true})
			if err != nil || keep {
				return err
			}
			if _, err := f.session.RemoveLogo(); err != nil {
				return err
			}
		}
		attach, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Attach a company logo?"})
		if err != nil || !attach {
			return err
		}
	}

	for {
		if path == "" {
			var err error
			path, err = f.driver.Input(ctx, InputConfig{
				Message: "Logo file (PNG, JPEG or GIF, max 16MB):",
				Help:    "Leave empty to continue without a logo",
			})
			if err != nil {
				return err
			}
			path = strings.TrimSpace(path)
			if path == "" {
				_, err := f.session.RemoveLogo()
				return err
			}
		}

		file, err := logo.FromPath(path)
		if err == nil {
			_, err = f.session.AttachLogo(file)
		}
		if err == nil {
			return f.driver.Info(ctx, "Attached "+file.Name)
		}
		if infoErr := f.driver.Info(ctx, err.Error()); infoErr != nil {
			return infoErr
		}
		path = ""
	}
}

func (f *Form) showErrors(ctx context.Context, view model.View) error {
	var lines []string
	for _, key := range model.FieldKeys {
		if msg, ok := view.FieldErrors[key]; ok {
			lines = append(lines, "  "+msg)
		}
	}
	if view.FileError != "" {
		lines = append(lines, "  "+view.FileError)
	}
	if view.SubmitError != "" {
		lines = append(lines, "  "+view.SubmitError)
	}
	return f.driver.Info(ctx, "Submission failed:\n"+strings.Join(lines, "\n"))
}

func (f *Form) showResult(ctx context.Context, view model.View) error {
	r := view.Result
	msg := fmt.Sprintf("Your deck is ready: %s (%d slides)\nDownload: %s",
		r.Filename, r.SlidesGenerated, view.DownloadURL)
	if !r.ExpiresAt.IsZero() {
		msg += "\nLink expires at " + r.ExpiresAt.Local().Format("2006-01-02 15:04 MST")
	}
	return f.driver.Info(ctx, msg)
}
