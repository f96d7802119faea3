// Package form describes the editable fields of each resource screen and
// binds submitted values onto entities.
//
// Every resource has one constructor per mode. A mode decides which fields
// are rendered and bound, so a partial-update mode never touches fields it
// does not declare.
package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TokenField is the hidden field carrying the CSRF token of every form.
const TokenField = "_token"

type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindEmail    Kind = "email"
	KindPassword Kind = "password"
	KindCheckbox Kind = "checkbox"
	KindChoice   Kind = "choice"
	KindFile     Kind = "file"
)

type Choice struct {
	Value string
	Label string
}

type Field struct {
	Name     string
	Kind     Kind
	Label    string
	Required bool
	Choices  []Choice

	Value   string
	Values  []string
	Checked bool
	Error   string
}

// Selected reports whether v is among the field's current values.
func (f *Field) Selected(v string) bool {
	for _, s := range f.Values {
		if s == v {
			return true
		}
	}
	return false
}

func (f *Field) hasChoice(v string) bool {
	for _, c := range f.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Options are the choice lists injected from configuration.
type Options struct {
	Roles   []model.Role
	Locales []config.Locale
}

func (o Options) roleChoices() []Choice {
	choices := make([]Choice, 0, len(o.Roles))
	for _, r := range o.Roles {
		choices = append(choices, Choice{Value: string(r), Label: r.Label()})
	}
	return choices
}

func (o Options) localeChoices() []Choice {
	choices := make([]Choice, 0, len(o.Locales))
	for _, l := range o.Locales {
		choices = append(choices, Choice{Value: l.Code, Label: l.Label})
	}
	return choices
}

// Form is the renderable state shared by every mode.
type Form struct {
	Name      string
	TokenId   string
	Token     string
	Submit    string
	Multipart bool
	Fields    []*Field
	Errors    []string
}

func (f *Form) Field(name string) *Field {
	for _, field := range f.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

func (f *Form) Valid() bool {
	if len(f.Errors) > 0 {
		return false
	}
	for _, field := range f.Fields {
		if field.Error != "" {
			return false
		}
	}
	return true
}

// AddFieldError marks a field invalid; unknown names become form errors.
func (f *Form) AddFieldError(name, message string) {
	if field := f.Field(name); field != nil {
		if field.Error == "" {
			field.Error = message
		}
		return
	}
	f.Errors = append(f.Errors, message)
}

// PrepareToken loads the session's CSRF token for rendering.
func (f *Form) PrepareToken(c *gin.Context) {
	f.Token = session.CsrfToken(c, f.TokenId)
}

// Definition is one mode of a resource form.
type Definition[T any] interface {
	View() *Form
	Bind(c *gin.Context) bool
	Apply(entity *T) error
}

const (
	msgBlank    = "This value should not be blank."
	msgEmail    = "This value is not a valid email address."
	msgTooLong  = "This value is too long."
	msgTooShort = "This value is too short."
	msgChoice   = "The selected choice is invalid."
	msgMismatch = "The password fields must match."
	msgInvalid  = "This value is not valid."
	msgCsrf     = "The CSRF token is invalid. Please try to resubmit the form."
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if strings.Contains(fe.Field(), "[") {
			return msgChoice
		}
		return msgBlank
	case "email":
		return msgEmail
	case "max":
		if fe.Kind() == reflect.Slice {
			return msgChoice
		}
		return msgTooLong
	case "min":
		return msgTooShort
	case "eqfield":
		return msgMismatch
	}
	return msgInvalid
}

// bind decodes the request into input and records every problem on f:
// struct validation, choices outside the declared options and a CSRF
// token that does not match the form's token id.
func bind(c *gin.Context, f *Form, input any) bool {
	f.Errors = nil
	for _, field := range f.Fields {
		field.Error = ""
	}

	b := binding.Form
	if f.Multipart {
		b = binding.FormMultipart
	}
	if err := c.ShouldBindWith(input, b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				name := fe.Field()
				if i := strings.IndexByte(name, '['); i >= 0 {
					name = name[:i]
				}
				f.AddFieldError(name, messageFor(fe))
			}
		} else {
			f.Errors = append(f.Errors, msgInvalid)
		}
	}

	for _, field := range f.Fields {
		refill(c, field)
		if field.Kind != KindChoice {
			continue
		}
		for _, v := range field.Values {
			if v != "" && !field.hasChoice(v) {
				f.AddFieldError(field.Name, msgChoice)
			}
		}
	}

	if !session.IsCsrfTokenValid(c, f.TokenId, c.PostForm(TokenField)) {
		f.Errors = append(f.Errors, msgCsrf)
	}
	f.PrepareToken(c)
	return f.Valid()
}

// refill copies the submitted value back so an invalid form re-renders
// what the user typed. Passwords are never echoed.
func refill(c *gin.Context, field *Field) {
	switch field.Kind {
	case KindPassword, KindFile:
	case KindCheckbox:
		field.Checked = c.PostForm(field.Name) == "true"
	case KindChoice:
		field.Values = c.PostFormArray(field.Name)
	default:
		field.Value = c.PostForm(field.Name)
	}
}

// RolesToWire wraps a single role in the list shape used on the wire.
func RolesToWire(r model.Role) []string {
	if r == model.RoleNone {
		return []string{}
	}
	return []string{string(r)}
}

// RoleFromWire takes the first element of the wire list, none when empty.
func RoleFromWire(values []string) model.Role {
	if len(values) == 0 {
		return model.RoleNone
	}
	return model.Role(values[0])
}
