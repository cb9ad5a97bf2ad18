// ABOUTME: Embeds the static chat UI assets.

package webchat

import "embed"

//go:embed public
var publicFiles embed.FS
