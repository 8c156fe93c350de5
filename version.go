package runnerdash

// Version is the current version of the runnerdash library
const Version = "1.0.0"
