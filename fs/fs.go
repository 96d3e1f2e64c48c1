package appfs

import "embed"

// FS holds the assets shipped with the binary: goose migrations and
// the email templates. The base templates are listed explicitly since
// directory patterns skip underscore-prefixed files.
//go:embed migrations assets
//go:embed assets/templates/email/_base.txt assets/templates/email/_base.gohtml
var FS embed.FS
