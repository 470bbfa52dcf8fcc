// Package cli implements the beanfeed client commands on top of the
// profile proxy.
//
// Commands
//
//	get      list visible profiles (--id, --limit, --offset)
//	show     print one profile
//	insert   create a profile from flags (--slug picks its id)
//	update   change selected fields of a profile
//	delete   remove a profile (--etag, or the current token is fetched)
//	batch    create every entry of an Atom feed file (--each for one
//	         request per entry)
//
// Global flags are described in the config package. With --ask-token the
// bearer token is read from the terminal without echo.
package cli
