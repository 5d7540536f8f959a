package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/dropout/core"
)

var (
	pwdMinLenTag = "pwdminlen"

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your username or full name"

	pwdConfirmText = "new passwords do not match"
)

// InitValidators registers the user validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(changePasswordStructValidation, ChangePassword{})

	_ = validate.RegisterTranslation(pwdMinLenTag, translator,
		func(t ut.Translator) error {
			return t.Add(pwdMinLenTag, "password should be at least {0} characters", false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(pwdMinLenTag, fe.Param())
			return s
		},
	)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, "eqfield", pwdConfirmText, true)
}

// Custom Validators

// changePasswordStructValidation applies the password policy to ChangePassword.NewPassword.
func changePasswordStructValidation(sl validator.StructLevel) {
	cp, ok := sl.Current().Interface().(ChangePassword)
	if !ok || cp.NewPassword == "" {
		return // reported by `required`
	}
	validatePassword(cp.NewPassword, cp.policy, sl, cp.username, cp.fullName)
}

// validatePassword applies the password policy to pwd:
// - minLen (always)
// - strict only: no whitespace, not all numeric, no similarity with user attrs
func validatePassword(pwd string, policy PasswordPolicy, sl validator.StructLevel, userAttrs ...string) {
	reportErr := func(tag, param string) {
		sl.ReportError(pwd, "new_password", "NewPassword", tag, param)
	}

	if len([]rune(pwd)) < policy.MinLen {
		reportErr(pwdMinLenTag, fmt.Sprint(policy.MinLen))
		return
	}
	if !policy.Strict {
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag, "")
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len([]rune(pwd)) {
		reportErr(pwdNotAllNumTag, "")
		return
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range userAttrs {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			reportErr(pwdAttrSimTag, "")
			return
		}
	}
}
