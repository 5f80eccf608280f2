package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/services/case-service/models"
)

// FormValidator checks case submissions and reports every violation at once.
type FormValidator struct {
	validate *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("crime_category", func(fl validator.FieldLevel) bool {
		return catalog.CrimeCategory(fl.Field().String()).Valid()
	})
	v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return catalog.Severity(fl.Field().String()).Valid()
	})
	v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return catalog.Priority(fl.Field().String()).Valid()
	})

	v.RegisterStructValidation(validateSubCategory, models.CaseFormData{})

	return &FormValidator{validate: v}
}

// validateSubCategory requires the sub-category to belong to the chosen
// category. Unknown categories are already reported on their own field.
func validateSubCategory(sl validator.StructLevel) {
	form := sl.Current().Interface().(models.CaseFormData)
	if !form.Category.Valid() || form.SubCategory == "" {
		return
	}
	if !form.Category.HasSubcategory(form.SubCategory) {
		sl.ReportError(form.SubCategory, "sub_category", "SubCategory", "subcategory", string(form.Category))
	}
}

// Validate normalizes form in place and checks it against now.
func (fv *FormValidator) Validate(form *models.CaseFormData, now time.Time) error {
	normalizeForm(form)

	verr := &ValidationError{}
	err := fv.validate.Struct(form)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate case form: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fieldName(fe), fe.Tag(), fieldMessage(fe))
		}
	}

	if !form.IncidentDate.IsZero() && form.IncidentDate.After(now) {
		verr.Add("incident_date", "not_future", "incident date cannot be in the future")
	}

	return verr.OrNil()
}

func normalizeForm(form *models.CaseFormData) {
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	form.SubCategory = strings.TrimSpace(form.SubCategory)
	form.IPAddress = strings.TrimSpace(form.IPAddress)
	form.Location.Country = strings.TrimSpace(form.Location.Country)
	form.Location.State = strings.TrimSpace(form.Location.State)
	form.Location.City = strings.TrimSpace(form.Location.City)
	for i, w := range form.Websites {
		form.Websites[i] = strings.TrimSpace(w)
	}
}

// fieldName drops the root struct name from the namespace, so nested
// fields read "location.city" and slice items "websites[1]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "crime_category":
		return "is not a known crime category"
	case "severity":
		return "must be one of low, medium, high, critical"
	case "priority":
		return "must be one of low, medium, high, urgent"
	case "subcategory":
		return fmt.Sprintf("is not a sub-category of %s", fe.Param())
	case "ip":
		return "must be a valid IP address"
	case "url|fqdn":
		return "must be a URL or domain name"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// normalizeTags trims, lower-cases and de-duplicates tags, keeping first
// occurrence order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
