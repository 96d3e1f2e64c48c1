package account

import (
	"strings"
	"time"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/mawazo/shule/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	dobTag  = "dateofbirth"
	dobText = "invalid date, expected YYYY-MM-DD"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = "password must contain at least 6 characters"

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .9
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to name or email"
)

// InitValidators registers the account validators and their translations.
// Call it once at startup, after core.InitValidators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
	core.RegisterCustomTranslation(validate, translator, dobTag, dobText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)

	validate.RegisterStructValidation(registrationStructValidation, NewStudent{}, NewTeacher{}, NewParent{}, NewAdmin{})
}

// ValidateRegistration normalizes a registration payload in place and applies
// both tag and struct-level validation. It never touches the store.
func ValidateRegistration(reg Registration, validate *validator.Validate) error {
	reg.base().clean()
	switch r := reg.(type) {
	case *NewStudent:
		r.ClassID = core.CleanString(r.ClassID)
		r.Section = core.CleanString(r.Section)
		r.DateOfBirth = core.CleanString(r.DateOfBirth)
		r.ParentEmail = core.CleanString(r.ParentEmail, true /* lower */)
		r.EmergencyName = core.CleanString(r.EmergencyName)
		r.EmergencyPhone = core.CleanString(r.EmergencyPhone)
		r.EmergencyRelation = core.CleanString(r.EmergencyRelation)
	case *NewTeacher:
		r.Qualification = core.CleanString(r.Qualification)
		r.Department = core.CleanString(r.Department)
	case *NewParent:
		r.Occupation = core.CleanString(r.Occupation)
	}
	return validate.Struct(reg)
}

// Custom Validators

// roleValidation checks that the value is one of the four known roles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

// registrationStructValidation applies the password policy to every
// registration variant and checks the student date of birth is parseable.
func registrationStructValidation(sl validator.StructLevel) {
	switch r := sl.Current().Interface().(type) {
	case NewStudent:
		validatePassword(r.Password, r.Name, r.Email, sl)
		if r.DateOfBirth != "" {
			if _, err := time.Parse(dateOfBirthLayout, r.DateOfBirth); err != nil {
				sl.ReportError(r.DateOfBirth, "date_of_birth", "DateOfBirth", dobTag, "")
			}
		}
	case NewTeacher:
		validatePassword(r.Password, r.Name, r.Email, sl)
	case NewParent:
		validatePassword(r.Password, r.Name, r.Email, sl)
	case NewAdmin:
		validatePassword(r.Password, r.Name, r.Email, sl)
	}
}

// validatePassword applies the password policy:
// - minLen: 6
// - no whitespace
// - no name/email similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
	if pwd == "" {
		return // `required` already reports it
	}

	if len(pwd) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
