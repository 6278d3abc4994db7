// Package notify delivers e-mail notices about transacciones being registered or annulled
package notify

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/pkg/errors"

	"github.com/feligres/feligres/app/export"
	"github.com/feligres/feligres/app/store"
)

// Service sends notices to a fixed list of recipients
type Service struct {
	destinations []notify.Notifier
	fromEmail    string
	toEmail      []string

	createdTmpl *template.Template
	anuladaTmpl *template.Template
	onCreated   bool
	onAnulada   bool
	baseURL     string
	timeout     time.Duration
}

// Params defines which notices are sent and how they look
type Params struct {
	EnabledCreated  bool
	EnabledAnulada  bool
	CreatedTemplate string // optional template file, default is used when empty or invalid
	AnuladaTemplate string // optional template file, default is used when empty or invalid
	BaseURL         string // used to link the transaccion from the message
	TimeOut         time.Duration
}

// SendersParams defines the smtp server and recipients
type SendersParams struct {
	SMTPParams notify.SMTPParams
	FromEmail  string
	ToEmails   []string
}

// NewService makes notification service, returns nil when there is nobody to notify
func NewService(p Params, sp SendersParams) *Service {
	if len(sp.ToEmails) == 0 {
		return nil
	}
	res := &Service{
		destinations: []notify.Notifier{notify.NewEmail(sp.SMTPParams)},
		fromEmail:    sp.FromEmail,
		toEmail:      sp.ToEmails,
		createdTmpl:  loadTemplate(p.CreatedTemplate, defaultCreatedTmpl),
		anuladaTmpl:  loadTemplate(p.AnuladaTemplate, defaultAnuladaTmpl),
		onCreated:    p.EnabledCreated,
		onAnulada:    p.EnabledAnulada,
		baseURL:      strings.TrimSuffix(p.BaseURL, "/"),
		timeout:      p.TimeOut,
	}
	if res.timeout <= 0 {
		res.timeout = 30 * time.Second
	}
	log.Printf("[INFO] notifications enabled for %v, created:%v, anulada:%v", sp.ToEmails, p.EnabledCreated, p.EnabledAnulada)
	return res
}

// TransaccionCreated sends the notice for a new transaccion. Errors are logged only.
func (s *Service) TransaccionCreated(ctx context.Context, t store.Transaccion) {
	if s == nil || !s.onCreated {
		return
	}
	s.deliver(ctx, "Nueva transacción "+t.NumeroTransaccion, s.createdTmpl, t)
}

// TransaccionAnulada sends the notice for an annulled transaccion. Errors are logged only.
func (s *Service) TransaccionAnulada(ctx context.Context, t store.Transaccion) {
	if s == nil || !s.onAnulada {
		return
	}
	s.deliver(ctx, "Transacción anulada "+t.NumeroTransaccion, s.anuladaTmpl, t)
}

func (s *Service) deliver(ctx context.Context, subj string, tmpl *template.Template, t store.Transaccion) {
	msg, err := s.render(tmpl, t)
	if err != nil {
		log.Printf("[WARN] can't make notification for %s, %v", t.ID, err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.Send(ctx, subj, msg); err != nil {
		log.Printf("[WARN] can't send notification for %s, %v", t.ID, err)
	}
}

// MakeCreatedHTML renders the new-transaccion message
func (s *Service) MakeCreatedHTML(t store.Transaccion) (string, error) {
	return s.render(s.createdTmpl, t)
}

// MakeAnuladaHTML renders the annulled-transaccion message
func (s *Service) MakeAnuladaHTML(t store.Transaccion) (string, error) {
	return s.render(s.anuladaTmpl, t)
}

// IsOnCreated status enabling new-transaccion notices
func (s *Service) IsOnCreated() bool { return s != nil && s.onCreated }

// IsOnAnulada status enabling annulled-transaccion notices
func (s *Service) IsOnAnulada() bool { return s != nil && s.onAnulada }

// Send message with subject to all recipients, through every destination
func (s *Service) Send(ctx context.Context, subj, text string) error {
	q := url.Values{}
	q.Set("from", s.fromEmail)
	q.Set("subject", subj)
	dest := "mailto:" + strings.Join(s.toEmail, ",") + "?" + q.Encode()

	for _, d := range s.destinations {
		if err := d.Send(ctx, dest, text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) render(tmpl *template.Template, t store.Transaccion) (string, error) {
	host, _ := os.Hostname()
	data := struct {
		Numero      string
		Fecha       string
		Tipo        string
		Monto       string
		Categoria   string
		Actividad   string
		Persona     string
		Descripcion string
		Motivo      string
		Link        string
		Host        string
		TS          time.Time
	}{
		Numero:      t.NumeroTransaccion,
		Fecha:       export.FormatFecha(t.Fecha),
		Tipo:        t.Tipo.Label(),
		Monto:       export.FormatCOP(t.Monto),
		Categoria:   t.CategoriaNombre,
		Actividad:   t.ActividadNombre,
		Persona:     t.PersonaNombre,
		Descripcion: t.Descripcion,
		Motivo:      t.MotivoAnulacion,
		Host:        host,
		TS:          time.Now(),
	}
	if s.baseURL != "" {
		data.Link = s.baseURL + "/contabilidad/transacciones/" + t.ID
	}

	buf := bytes.Buffer{}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "failed to apply template")
	}
	return buf.String(), nil
}

// loadTemplate parses the template file, falling back to the built-in one
func loadTemplate(file, fallback string) *template.Template {
	def := template.Must(template.New("msg").Parse(fallback))
	if file == "" {
		return def
	}
	data, err := os.ReadFile(file) //nolint:gosec // path comes from the operator's config
	if err != nil {
		log.Printf("[WARN] can't read template %s, using default, %v", file, err)
		return def
	}
	tmpl, err := template.New("msg").Parse(string(data))
	if err != nil {
		log.Printf("[WARN] can't parse template %s, using default, %v", file, err)
		return def
	}
	return tmpl
}

const msgHead = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		<style type="text/css">
			body {
				font-family: "Arial";
				font-size: 1.0em;
			}
			ul {
				margin-top: -0.5em;
				margin-left: -0.5em;
			}
			.bold {
				color: #1e40af;
				font-weight: 900;
			}
			.warn {
				color: #882828;
				font-weight: 900;
			}
		</style>
	</head>
`

const defaultCreatedTmpl = msgHead + `
	<body>
		<p>Transacción <span class="bold">{{.Numero}}</span> registrada en {{.Host}} a las {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Fecha: <span class="bold">{{.Fecha}}</span></li>
			<li>Tipo: <span class="bold">{{.Tipo}}</span></li>
			<li>Monto: <span class="bold">{{.Monto}}</span></li>
			<li>Categoría: <span class="bold">{{.Categoria}}</span></li>
			{{if .Actividad}}<li>Actividad: <span class="bold">{{.Actividad}}</span></li>{{end}}
			{{if .Persona}}<li>Persona: <span class="bold">{{.Persona}}</span></li>{{end}}
		</ul>
		{{if .Descripcion}}<p>{{.Descripcion}}</p>{{end}}
		{{if .Link}}<p><a href="{{.Link}}">Ver transacción</a></p>{{end}}
	</body>
</html>
`

const defaultAnuladaTmpl = msgHead + `
	<body>
		<p>Transacción <span class="warn">{{.Numero}}</span> anulada en {{.Host}} a las {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Fecha: <span class="bold">{{.Fecha}}</span></li>
			<li>Tipo: <span class="bold">{{.Tipo}}</span></li>
			<li>Monto: <span class="bold">{{.Monto}}</span></li>
			<li>Motivo: <span class="warn">{{.Motivo}}</span></li>
		</ul>
		{{if .Link}}<p><a href="{{.Link}}">Ver transacción</a></p>{{end}}
	</body>
</html>
`
