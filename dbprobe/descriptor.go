package dbprobe

import (
	"strings"

	errgo "gopkg.in/errgo.v1"
)

// Descriptor describes a database to connect to, using the
// field names of an ODBC connection string.
type Descriptor struct {
	Driver   string
	Server   string
	Database string

	// Credentials. These are unset for the default descriptor,
	// which relies on the local server's own authentication.
	UID               string
	PWD               string
	TrustedConnection bool
}

// Default holds the descriptor used by the dbprobe command.
var Default = Descriptor{
	Driver:   "ODBC Driver 17 for SQL Server",
	Server:   `(localdb)\MSSQLLocalDB`,
	Database: "Training_data",
}

// String returns the descriptor as an ODBC connection string
// with any password masked out.
func (d Descriptor) String() string {
	return d.format(true)
}

// ODBC returns the descriptor as an ODBC connection string
// including the password. ParseDescriptor(d.ODBC()) returns d.
func (d Descriptor) ODBC() string {
	return d.format(false)
}

func (d Descriptor) format(mask bool) string {
	var b strings.Builder
	// The driver name is always braced, as ODBC drivers
	// usually have spaces in their names.
	b.WriteString("Driver={")
	b.WriteString(strings.Replace(d.Driver, "}", "}}", -1))
	b.WriteString("};")
	add := func(key, val string) {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(odbcValue(val))
		b.WriteByte(';')
	}
	add("Server", d.Server)
	add("Database", d.Database)
	if d.UID != "" {
		add("UID", d.UID)
	}
	if d.PWD != "" {
		if mask {
			add("PWD", "****")
		} else {
			add("PWD", d.PWD)
		}
	}
	if d.TrustedConnection {
		add("Trusted_Connection", "yes")
	}
	return b.String()
}

// odbcValue returns v, braced if it would not otherwise
// survive parsing.
func odbcValue(v string) string {
	if !strings.ContainsAny(v, ";{}") && strings.TrimSpace(v) == v {
		return v
	}
	return "{" + strings.Replace(v, "}", "}}", -1) + "}"
}

// ParseDescriptor parses an ODBC-style connection string of the form
//
//	key=value;key=value;...
//
// Keys are case-insensitive. A value may be enclosed in braces, in
// which case it may contain semicolons and a closing brace is
// written as "}}".
func ParseDescriptor(s string) (Descriptor, error) {
	var d Descriptor
	for s != "" {
		var key, val string
		var err error
		key, val, s, err = nextPair(s)
		if err != nil {
			return Descriptor{}, errgo.Mask(err)
		}
		if key == "" {
			continue
		}
		switch strings.ToLower(key) {
		case "driver":
			d.Driver = val
		case "server":
			d.Server = val
		case "database":
			d.Database = val
		case "uid":
			d.UID = val
		case "pwd":
			d.PWD = val
		case "trusted_connection":
			switch strings.ToLower(val) {
			case "yes", "true":
				d.TrustedConnection = true
			case "no", "false":
				d.TrustedConnection = false
			default:
				return Descriptor{}, errgo.Newf("invalid Trusted_Connection value %q", val)
			}
		default:
			return Descriptor{}, errgo.Newf("unknown connection string key %q", key)
		}
	}
	return d, nil
}

// nextPair parses the first key=value pair from s and returns the
// remainder. It returns an empty key for an empty element.
func nextPair(s string) (key, val, rest string, err error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" || s[0] == ';' {
		if s != "" {
			s = s[1:]
		}
		return "", "", s, nil
	}
	eq := strings.IndexAny(s, "=;")
	if eq == -1 || s[eq] != '=' {
		return "", "", "", errgo.Newf("missing '=' in connection string element %q", leading(s))
	}
	key = strings.TrimSpace(s[:eq])
	if key == "" {
		return "", "", "", errgo.Newf("empty key in connection string")
	}
	s = strings.TrimLeft(s[eq+1:], " \t")
	if !strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, ';')
		if end == -1 {
			return key, strings.TrimSpace(s), "", nil
		}
		return key, strings.TrimSpace(s[:end]), s[end+1:], nil
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '}' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '}' {
			b.WriteByte('}')
			i++
			continue
		}
		rest = strings.TrimLeft(s[i+1:], " \t")
		switch {
		case rest == "":
		case rest[0] == ';':
			rest = rest[1:]
		default:
			return "", "", "", errgo.Newf("unexpected text after closing brace in value of %q", key)
		}
		return key, b.String(), rest, nil
	}
	return "", "", "", errgo.Newf("unterminated brace in value of %q", key)
}

func leading(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return s[:i]
	}
	return s
}
