package form

import (
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/util/crypto"

	"github.com/gin-gonic/gin"
)

const UserTokenId = "user_item"

type userInput struct {
	Email        string   `form:"email" binding:"required,email,max=180"`
	Username     string   `form:"username" binding:"required,max=180"`
	Roles        []string `form:"roles" binding:"required,max=1,dive,required"`
	Locale       string   `form:"locale" binding:"required"`
	IsVerified   bool     `form:"isVerified"`
	IsRestricted bool     `form:"isRestricted"`
}

func (in *userInput) apply(u *model.User) {
	u.Email = in.Email
	u.Username = in.Username
	u.Role = RoleFromWire(in.Roles)
	u.Locale = in.Locale
	u.IsVerified = in.IsVerified
	u.IsRestricted = in.IsRestricted
}

func userFields(u *model.User, opts Options) []*Field {
	return []*Field{
		{Name: "email", Kind: KindEmail, Label: "Email", Required: true, Value: u.Email},
		{Name: "username", Kind: KindText, Label: "Username", Required: true, Value: u.Username},
		{Name: "roles", Kind: KindChoice, Label: "Roles", Required: true, Choices: opts.roleChoices(), Values: RolesToWire(u.Role)},
		{Name: "locale", Kind: KindChoice, Label: "Locale", Required: true, Choices: opts.localeChoices(), Values: []string{u.Locale}},
		{Name: "isVerified", Kind: KindCheckbox, Label: "Is verified", Checked: u.IsVerified},
		{Name: "isRestricted", Kind: KindCheckbox, Label: "Is restricted", Checked: u.IsRestricted},
	}
}

// UserCreateForm is the admin "create" mode: profile fields plus password.
type UserCreateForm struct {
	form  *Form
	input struct {
		userInput
		Password string `form:"password" binding:"required,min=6,max=4096"`
	}
}

func NewUserCreateForm(opts Options) *UserCreateForm {
	blank := &model.User{Role: model.RoleUser}
	if len(opts.Locales) > 0 {
		blank.Locale = opts.Locales[0].Code
	}
	fields := append(userFields(blank, opts),
		&Field{Name: "password", Kind: KindPassword, Label: "Password", Required: true})
	return &UserCreateForm{form: &Form{Name: "user", TokenId: UserTokenId, Submit: "Save", Fields: fields}}
}

func (f *UserCreateForm) View() *Form { return f.form }

func (f *UserCreateForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

// Apply sets the profile fields and stores the password hash.
func (f *UserCreateForm) Apply(u *model.User) error {
	hash, err := crypto.HashPasswordAsBcrypt(f.input.Password)
	if err != nil {
		return err
	}
	f.input.apply(u)
	u.Password = hash
	return nil
}

// UserEditForm is the admin "edit" mode; the password is left alone.
type UserEditForm struct {
	form  *Form
	input userInput
}

func NewUserEditForm(u *model.User, opts Options) *UserEditForm {
	return &UserEditForm{form: &Form{Name: "user", TokenId: UserTokenId, Submit: "Update", Fields: userFields(u, opts)}}
}

func (f *UserEditForm) View() *Form { return f.form }

func (f *UserEditForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

func (f *UserEditForm) Apply(u *model.User) error {
	f.input.apply(u)
	return nil
}

// UserPasswordForm changes only the password, typed twice.
type UserPasswordForm struct {
	form  *Form
	input struct {
		Password     string `form:"password" binding:"required,min=6,max=4096"`
		Confirmation string `form:"passwordConfirmation" binding:"required,eqfield=Password"`
	}
}

func NewUserPasswordForm() *UserPasswordForm {
	return &UserPasswordForm{form: &Form{
		Name:    "user",
		TokenId: UserTokenId,
		Submit:  "Update password",
		Fields: []*Field{
			{Name: "password", Kind: KindPassword, Label: "Password", Required: true},
			{Name: "passwordConfirmation", Kind: KindPassword, Label: "Repeat password", Required: true},
		},
	}}
}

func (f *UserPasswordForm) View() *Form { return f.form }

func (f *UserPasswordForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

func (f *UserPasswordForm) Apply(u *model.User) error {
	hash, err := crypto.HashPasswordAsBcrypt(f.input.Password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// Email and Username expose the bound identifiers for uniqueness checks.
func (f *UserCreateForm) Email() string    { return f.input.Email }
func (f *UserCreateForm) Username() string { return f.input.Username }
func (f *UserEditForm) Email() string      { return f.input.Email }
func (f *UserEditForm) Username() string   { return f.input.Username }
