/*
Copyright 2019 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logutil wires up the server's logrus output: a JSON or
// human-readable base formatter, wrapped so any configured secret value
// never reaches a log line.
package logutil

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/clowarden/clowarden/pkg/secretutil"
)

// CensoringFormatter wraps a delegate logrus.Formatter, replacing any
// value returned by getSecrets out of the entry's message and fields
// before the delegate ever sees them. getSecrets is called on every
// Format so the secret set can change at runtime (e.g. on a config
// reload) without re-registering a new formatter.
type CensoringFormatter struct {
	delegate   logrus.Formatter
	getSecrets func() sets.Set[string]
}

// NewCensoringFormatter returns a CensoringFormatter delegating to base.
func NewCensoringFormatter(delegate logrus.Formatter, getSecrets func() sets.Set[string]) *CensoringFormatter {
	return &CensoringFormatter{delegate: delegate, getSecrets: getSecrets}
}

func (f *CensoringFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	secrets := f.getSecrets()
	censored := *entry
	censored.Message = censorString(entry.Message, secrets)
	if entry.Data != nil {
		data := make(logrus.Fields, len(entry.Data))
		for k, v := range entry.Data {
			data[k] = censorString(stringify(v), secrets)
		}
		censored.Data = data
	}
	return f.delegate.Format(&censored)
}

func censorString(s string, secrets sets.Set[string]) string {
	for _, secret := range sets.List(secrets) {
		trimmed := strings.TrimSpace(secret)
		if trimmed == "" {
			continue
		}
		s = strings.ReplaceAll(s, trimmed, strings.Repeat("X", len(trimmed)))
	}
	return s
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// formatterWithCensor is like CensoringFormatter but takes its secret set
// from a secretutil.Censorer, the form the server entrypoint builds from
// the loaded configuration's app credentials and webhook secrets.
type formatterWithCensor struct {
	delegate logrus.Formatter
	censorer secretutil.Censorer
}

// NewFormatterWithCensor returns a logrus.Formatter that censors via
// censorer before delegating to delegate.
func NewFormatterWithCensor(delegate logrus.Formatter, censorer secretutil.Censorer) logrus.Formatter {
	return &formatterWithCensor{delegate: delegate, censorer: censorer}
}

func (f *formatterWithCensor) Format(entry *logrus.Entry) ([]byte, error) {
	censored := *entry
	censored.Message = f.censor(entry.Message)
	if entry.Data != nil {
		data := make(logrus.Fields, len(entry.Data))
		for k, v := range entry.Data {
			data[k] = f.censor(stringify(v))
		}
		censored.Data = data
	}
	return f.delegate.Format(&censored)
}

func (f *formatterWithCensor) censor(s string) string {
	b := []byte(s)
	f.censorer.Censor(&b)
	return string(b)
}
