package pycst

// Version is the library release identifier, surfaced by the pycst CLI.
var Version = "0.4.0"

// BuildDate is stamped by the release build via -ldflags; "dev" otherwise.
var BuildDate = "dev"
