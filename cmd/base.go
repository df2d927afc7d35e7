// Package cmd holds the flags and build info shared by kiwistand executables.
package cmd

var (
	// Version is the app's semantic version. Set by main from linker flags.
	Version string

	// Branch is the git branch used to build the App. Set by main from linker flags.
	Branch string

	// Commit is the git commit used to build the app. Set by main from linker flags.
	Commit string
)
