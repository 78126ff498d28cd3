// Package textutil sanitizes release names and path segments for safe
// filesystem use. Catalog names come from community DATs and may contain
// characters that are unsafe in filenames on some platforms.
package textutil
