// Package abi provides internal helpers shared by the layout engine and the
// instance accessors.
//
// # Contents
//
//   - helpers.go: alignment, checked arithmetic, truncation and sign extension
//   - codec.go: little-endian load/store of primitive bits at a byte offset
//   - coerce.go: conversion of Go values to raw bits for writes
//
// All targets this module supports (x86-64, arm64, wasm32) are little-endian.
package abi
