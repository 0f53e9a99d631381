// Package install writes catalog rules into a project.
//
// Rules are written to <root>/<dir>/<slug><extension> with a YAML front
// matter block, or as the project's single .cursorrules file. Existing files
// are only replaced when forced. [Installer.Diff] compares an installed file
// with the catalog version.
package install
