package templates

import "embed"

//go:embed portal.html
var PortalFS embed.FS
