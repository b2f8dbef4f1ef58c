package http

// These mirror the reference implementation's detail/constants.h exactly,
// including the vestigial content type — spec §6 documents it as an
// anti-feature but requires it be preserved for wire compatibility.
const (
	serverName  = "NanoRPC Go server"
	userAgent   = "NanoRPC Go client"
	contentType = "text/html"
)
