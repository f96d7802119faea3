package form

import (
	"mime/multipart"

	"github.com/mhsanaei/blogpanel/database/model"

	"github.com/gin-gonic/gin"
)

const FileTokenId = "File_item"

// FileMode names the partial edit screens of a file.
type FileMode string

const (
	FileEdition     FileMode = "edition"
	FileEditName    FileMode = "edit-name"
	FileEditPrivate FileMode = "edit-private"
)

// NewFileForm returns the definition for mode, nil for an unknown mode.
func NewFileForm(mode FileMode, file *model.File, opts Options) Definition[model.File] {
	switch mode {
	case FileEdition:
		return NewFileEditionForm(file, opts)
	case FileEditName:
		return NewFileNameForm(file)
	case FileEditPrivate:
		return NewFilePrivateForm(file)
	}
	return nil
}

func fileForm(submit string, fields ...*Field) *Form {
	return &Form{Name: "file", TokenId: FileTokenId, Submit: submit, Fields: fields}
}

// FileEditionForm edits publication, required role and description.
type FileEditionForm struct {
	form  *Form
	input struct {
		IsPublished bool   `form:"isPublished"`
		RoleAccess  string `form:"roleAccess"`
		Description string `form:"description" binding:"max=10000"`
	}
}

func NewFileEditionForm(file *model.File, opts Options) *FileEditionForm {
	roleValues := []string{}
	if file.RoleAccess != model.RoleNone {
		roleValues = []string{string(file.RoleAccess)}
	}
	return &FileEditionForm{form: fileForm("Edit",
		&Field{Name: "isPublished", Kind: KindCheckbox, Label: "Is published", Checked: file.IsPublished},
		&Field{Name: "roleAccess", Kind: KindChoice, Label: "Role access", Choices: opts.roleChoices(), Values: roleValues},
		&Field{Name: "description", Kind: KindTextarea, Label: "Description", Value: file.Description},
	)}
}

func (f *FileEditionForm) View() *Form { return f.form }

func (f *FileEditionForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

func (f *FileEditionForm) Apply(file *model.File) error {
	file.IsPublished = f.input.IsPublished
	file.RoleAccess = model.Role(f.input.RoleAccess)
	file.Description = f.input.Description
	return nil
}

// FileNameForm renames the file and nothing else.
type FileNameForm struct {
	form  *Form
	input struct {
		Name string `form:"name" binding:"required,max=255"`
	}
}

func NewFileNameForm(file *model.File) *FileNameForm {
	return &FileNameForm{form: fileForm("Edit name",
		&Field{Name: "name", Kind: KindText, Label: "Name", Required: true, Value: file.Name},
	)}
}

func (f *FileNameForm) View() *Form { return f.form }

func (f *FileNameForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

func (f *FileNameForm) Apply(file *model.File) error {
	file.Name = f.input.Name
	return nil
}

// FilePrivateForm toggles the private flag and nothing else.
type FilePrivateForm struct {
	form  *Form
	input struct {
		Private bool `form:"private"`
	}
}

func NewFilePrivateForm(file *model.File) *FilePrivateForm {
	return &FilePrivateForm{form: fileForm("Edit Access",
		&Field{Name: "private", Kind: KindCheckbox, Label: "Private", Checked: file.Private},
	)}
}

func (f *FilePrivateForm) View() *Form { return f.form }

func (f *FilePrivateForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

func (f *FilePrivateForm) Apply(file *model.File) error {
	file.Private = f.input.Private
	return nil
}

// FileUploadForm receives a new blob. The display name defaults to the
// uploaded file name.
type FileUploadForm struct {
	form  *Form
	input struct {
		File        *multipart.FileHeader `form:"file" binding:"required"`
		Name        string                `form:"name" binding:"max=255"`
		Description string                `form:"description" binding:"max=10000"`
	}
}

func NewFileUploadForm() *FileUploadForm {
	f := fileForm("Upload",
		&Field{Name: "file", Kind: KindFile, Label: "File", Required: true},
		&Field{Name: "name", Kind: KindText, Label: "Name"},
		&Field{Name: "description", Kind: KindTextarea, Label: "Description"},
	)
	f.Multipart = true
	return &FileUploadForm{form: f}
}

func (f *FileUploadForm) View() *Form { return f.form }

func (f *FileUploadForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

// Upload is the bound multipart header, nil before a valid Bind.
func (f *FileUploadForm) Upload() *multipart.FileHeader {
	return f.input.File
}

func (f *FileUploadForm) Apply(file *model.File) error {
	file.Name = f.input.Name
	if file.Name == "" && f.input.File != nil {
		file.Name = f.input.File.Filename
	}
	file.Description = f.input.Description
	if f.input.File != nil {
		file.Size = f.input.File.Size
		file.ContentType = f.input.File.Header.Get("Content-Type")
	}
	return nil
}
