package script

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// PortalData feeds the hotspot login page template.
type PortalData struct {
	TenantName string
	PortalURL  string
}

// portalTemplate is the login.html the hotspot serves. It immediately hands
// the client off to the external portal, carrying the device's template
// variables through as query parameters.
const portalTemplate = `<html>
<head>
<title>{{ .TenantName | default "WiFi" | title }} Login</title>
<meta http-equiv="refresh" content="0; url={{ .PortalURL }}?mac=$(mac)&ip=$(ip)&link-login-only=$(link-login-only)&link-orig=$(link-orig)&error=$(error)">
</head>
<body>
<script>
window.location = "{{ .PortalURL }}?mac=$(mac)&ip=$(ip)&link-login-only=$(link-login-only)&link-orig=$(link-orig)&error=$(error)";
</script>
Redirecting to {{ .TenantName | default "the" }} login page...
</body>
</html>
`

// RenderPortalPage renders the captive-portal redirect page uploaded next
// to a hotspot deployment.
func RenderPortalPage(data PortalData) (string, error) {
	tmpl, err := template.New("portal").Funcs(sprig.TxtFuncMap()).Parse(portalTemplate)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
