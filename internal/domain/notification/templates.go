package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

type rendered struct {
	Subject string
	HTML    string
}

var bodies = map[Template]*template.Template{
	TemplateFileUploaded: template.Must(template.New("file_uploaded").Parse(
		`<p>Your file <b>{{.Filename}}</b> was uploaded.</p>` +
			`<p>Share link: <a href="{{.Data.access_url}}">{{.Data.access_url}}</a></p>` +
			`<p>Expires {{.Data.expires_at}}. Maximum views: {{.Data.max_views}}.</p>`)),
	TemplateFileAccessed: template.Must(template.New("file_accessed").Parse(
		`<p><b>{{.Filename}}</b> was opened ({{.Data.access_type}}) by {{.Data.viewer}}.</p>` +
			`<p>Views remaining: {{.Data.views_remaining}}.</p>`)),
	TemplateFileExpiring: template.Must(template.New("file_expiring").Parse(
		`<p>Your file <b>{{.Filename}}</b> expires {{.Data.expires_at}}.</p>` +
			`<p>After that the share link stops working.</p>`)),
	TemplateFileShared: template.Must(template.New("file_shared").Parse(
		`<p>{{.Data.shared_by}} shared <b>{{.Filename}}</b> with you.</p>` +
			`<p><a href="{{.Data.access_url}}">Open the file</a></p>`)),
}

var subjects = map[Template]string{
	TemplateFileUploaded: "File uploaded: %s",
	TemplateFileAccessed: "File accessed: %s",
	TemplateFileExpiring: "File expiring soon: %s",
	TemplateFileShared:   "A file was shared with you: %s",
}

func render(ev Event) (*rendered, error) {
	tmpl, ok := bodies[ev.Template]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, ev.Template)
	}
	if ev.Data == nil {
		ev.Data = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ev); err != nil {
		return nil, fmt.Errorf("render %s: %w", ev.Template, err)
	}
	return &rendered{
		Subject: fmt.Sprintf(subjects[ev.Template], ev.Filename),
		HTML:    buf.String(),
	}, nil
}
