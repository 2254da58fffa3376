// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/txprocessor/interpreter"
)

const (
	versionKey          = "version"
	httpHostKey         = "http-host"
	httpPortKey         = "http-port"
	dbDirKey            = "db-dir"
	rulesetKey          = "ruleset"
	logLevelKey         = "log-level"
	receiptCacheSizeKey = "receipt-cache-size"

	envPrefix = "txprocessor"
)

func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("txprocessor", pflag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.String(httpHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(httpPortKey, 9650, "Port of the HTTP server")
	fs.String(dbDirKey, "", "Directory of the ledger database. Empty keeps the ledger in memory")
	fs.String(rulesetKey, interpreter.DefaultRulesetName, "Ruleset manifests are validated with")
	fs.String(logLevelKey, "info", "Log level")
	fs.Int(receiptCacheSizeKey, 8192, "Number of receipts kept in memory")

	return fs
}

// getViper returns the viper environment of the binary. Every flag can also
// be set through a TXPROCESSOR_ prefixed environment variable.
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

type config struct {
	version          bool
	httpHost         string
	httpPort         uint
	dbDir            string
	ruleset          string
	logLevel         string
	receiptCacheSize int
}

func getConfig() (config, error) {
	v, err := getViper(os.Args[1:])
	if err != nil {
		return config{}, err
	}
	return config{
		version:          v.GetBool(versionKey),
		httpHost:         v.GetString(httpHostKey),
		httpPort:         v.GetUint(httpPortKey),
		dbDir:            v.GetString(dbDirKey),
		ruleset:          v.GetString(rulesetKey),
		logLevel:         v.GetString(logLevelKey),
		receiptCacheSize: v.GetInt(receiptCacheSizeKey),
	}, nil
}
