// Package assets provides the host page template and theme stylesheets.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles and templates (go:embed)
//	    ├── FilesystemLoader  - a custom directory on disk
//	    └── AssetResolver     - custom first, embedded when not found
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   ├── dark.css
//	│   └── light.css
//	└── templates/
//	    └── page.html
//
// Asset names are validated before use. FilesystemLoader resolves symlinks
// and verifies paths stay within basePath.
package assets
