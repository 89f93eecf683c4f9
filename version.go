package aozoraapi

// Release is the release version of aozora-api.
const Release = "v1.2.0"
