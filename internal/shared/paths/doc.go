// Package paths resolves the backend installation layout.
//
// The backend binary lives directly in the installation root and runs with the
// root as its working directory:
//
//	<root>/
//	  ├── terminal       (unix)
//	  ├── terminal.exe   (windows)
//	  └── bridge/        (this service)
//
// # Usage
//
//	root, err := paths.ResolveRoot(cfg.Backend.Root)
//	bin := paths.ResolveExecutable(root, cfg.Backend.Executable)
package paths
