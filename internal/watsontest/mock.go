//go:build !integration

package watsontest

const liveRequested = false
