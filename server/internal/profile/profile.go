package profile

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"text/template"

	"github.com/skip2/go-qrcode"

	"github.com/caldog20/tempnet/pkg/keys"
)

const (
	DefaultKeepalive = 25
	qrSize           = 256
	dataURLPrefix    = "data:image/png;base64,"
)

var DefaultDNS = []netip.Addr{
	netip.MustParseAddr("1.1.1.1"),
	netip.MustParseAddr("8.8.8.8"),
}

var configTemplate = template.Must(template.New("wg").Parse(`[Interface]
PrivateKey = {{ .PrivateKey }}
Address = {{ .Address }}
{{- if .DNS }}
DNS = {{ .DNS }}
{{- end }}

[Peer]
PublicKey = {{ .ServerKey }}
Endpoint = {{ .Endpoint }}
AllowedIPs = 0.0.0.0/0
{{- if gt .Keepalive 0 }}
PersistentKeepalive = {{ .Keepalive }}
{{- end }}
`))

// Server describes the tunnel endpoint every issued profile points at.
type Server struct {
	PublicKey keys.PublicKey
	Endpoint  string
	DNS       []netip.Addr
	Keepalive int
}

type Renderer struct {
	server Server
}

func NewRenderer(server Server) (*Renderer, error) {
	if server.PublicKey.IsZero() {
		return nil, errors.New("server public key is required")
	}
	if server.Endpoint == "" {
		return nil, errors.New("server endpoint is required")
	}
	return &Renderer{server: server}, nil
}

type Profile struct {
	Config string
	QR     string
}

// Render builds the client configuration for a peer holding priv at addr,
// where bits is the prefix length of the pool the address came from.
func (r *Renderer) Render(priv keys.PrivateKey, addr netip.Addr, bits int) (Profile, error) {
	dns := make([]string, 0, len(r.server.DNS))
	for _, a := range r.server.DNS {
		dns = append(dns, a.String())
	}

	var buf bytes.Buffer
	err := configTemplate.Execute(&buf, struct {
		PrivateKey string
		Address    netip.Prefix
		DNS        string
		ServerKey  string
		Endpoint   string
		Keepalive  int
	}{
		PrivateKey: priv.EncodeToString(),
		Address:    netip.PrefixFrom(addr, bits),
		DNS:        strings.Join(dns, ", "),
		ServerKey:  r.server.PublicKey.EncodeToString(),
		Endpoint:   r.server.Endpoint,
		Keepalive:  r.server.Keepalive,
	})
	if err != nil {
		return Profile{}, fmt.Errorf("rendering config: %w", err)
	}

	qr, err := QRDataURL(buf.String())
	if err != nil {
		return Profile{}, err
	}

	return Profile{Config: buf.String(), QR: qr}, nil
}

// QRDataURL encodes content as a PNG QR code wrapped in a data URL.
func QRDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
