package common

// This package contains shared utilities and types used across filesystem packages.
// It provides the error taxonomy for directory observation, path helpers and
// in-process tick statistics.
