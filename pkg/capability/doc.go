// Package capability holds the built-in capability group declarations and
// the class compositions assembled from them. Declarations are immutable
// tables of attribute descriptors; a driver materializes them into live
// groups at initialization. Custom classes compose the same GroupDecl
// building blocks.
package capability
