package content

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

var slugRule = validation.By(func(v any) error {
	s, _ := v.(string)
	if s != "" && !ValidSlug(s) {
		return errors.New("must not contain path separators")
	}
	return nil
})

// ValidatePost checks the fields a post needs before it can be stored.
func ValidatePost(p *models.Post) error {
	return asValidationError(validation.ValidateStruct(p,
		validation.Field(&p.Slug, validation.Required, slugRule),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Status, validation.In(models.StatusDraft, models.StatusPublished, models.StatusScheduled)),
	))
}

// ValidatePage checks the fields a page needs before it can be stored.
func ValidatePage(p *models.Page) error {
	return asValidationError(validation.ValidateStruct(p,
		validation.Field(&p.Slug, validation.Required, slugRule),
		validation.Field(&p.Title, validation.Required),
	))
}

// ValidateCategory checks the fields a category needs before it can be stored.
func ValidateCategory(c *models.Category) error {
	return asValidationError(validation.ValidateStruct(c,
		validation.Field(&c.Slug, validation.Required, slugRule),
		validation.Field(&c.Name, validation.Required),
	))
}

// ValidateTag checks the fields a tag needs before it can be stored.
func ValidateTag(t *models.Tag) error {
	return asValidationError(validation.ValidateStruct(t,
		validation.Field(&t.Slug, validation.Required, slugRule),
		validation.Field(&t.Name, validation.Required),
	))
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	out := &apperr.ValidationError{Fields: make(map[string]string, len(errs))}
	for field, fe := range errs {
		out.Fields[field] = fe.Error()
	}
	return out
}
