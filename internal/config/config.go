package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/polling-network/polling-daemon/internal/core/application"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// HTTPListeningPortKey is the port where the HTTP interface will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// RPCEndpointKey is the url of the ethereum node the daemon reads from
	RPCEndpointKey = "RPC_ENDPOINT"
	// RPCRequestsPerSecondKey caps the rate of calls to the ethereum node,
	// a negative value disables the limit
	RPCRequestsPerSecondKey = "RPC_REQUESTS_PER_SECOND"
	// MkrAddressKey is the address of the MKR token contract
	MkrAddressKey = "MKR_ADDRESS"
	// ChiefAddressKey is the address of the governance (DSChief) contract
	ChiefAddressKey = "CHIEF_ADDRESS"
	// ProxyFactoryAddressKey is the address of the VoteProxyFactory contract
	ProxyFactoryAddressKey = "PROXY_FACTORY_ADDRESS"
	// HardwareAccountsLengthKey is the number of accounts derived for every
	// hardware device scan
	HardwareAccountsLengthKey = "HARDWARE_ACCOUNTS_LENGTH"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// WebhookRequestTimeoutKey is the timeout of a single webhook delivery
	WebhookRequestTimeoutKey = "WEBHOOK_REQUEST_TIMEOUT"
	// NoWebhooksKey disables the webhook subsystem
	NoWebhooksKey = "NO_WEBHOOKS"
	// CORSAllowedOriginsKey is the comma separated list of origins allowed to
	// call the HTTP interface from a browser
	CORSAllowedOriginsKey = "CORS_ALLOWED_ORIGINS"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic daemon statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	// MainnetMkrAddress is the MKR token deployed on mainnet.
	MainnetMkrAddress = "0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("polling-daemon", false)

// InitConfig reads the configuration from the environment, optionally
// sourced from a .env file in the working directory.
func InitConfig() error {
	loadEnvFile()

	vip = viper.New()
	vip.SetEnvPrefix("POLLING")
	vip.AutomaticEnv()

	vip.SetDefault(HTTPListeningPortKey, 9080)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(RPCRequestsPerSecondKey, 10)
	vip.SetDefault(MkrAddressKey, MainnetMkrAddress)
	vip.SetDefault(HardwareAccountsLengthKey, application.DefaultHardwareAccountsLength)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(WebhookRequestTimeoutKey, 15*time.Second)
	vip.SetDefault(NoWebhooksKey, false)
	vip.SetDefault(CORSAllowedOriginsKey, "*")
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the account store, empty for the
// in-memory one.
func GetDbDir() string {
	if GetString(DBTypeKey) == application.DBInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetPubSubDatadir returns the base directory of the webhook store, empty for
// the in-memory one.
func GetPubSubDatadir() string {
	if GetString(DBTypeKey) == application.DBInMemory {
		return ""
	}
	return GetDatadir()
}

func GetAllowedOrigins() []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(GetString(CORSAllowedOriginsKey), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func loadEnvFile() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env file")
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := application.SupportedDBType[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf("unsupported db type %s", GetString(DBTypeKey))
	}

	endpoint := GetString(RPCEndpointKey)
	if endpoint == "" {
		return fmt.Errorf("missing rpc endpoint")
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" {
		return fmt.Errorf("invalid rpc endpoint %s", endpoint)
	}

	for _, key := range []string{
		MkrAddressKey, ChiefAddressKey, ProxyFactoryAddressKey,
	} {
		addr := GetString(key)
		if addr == "" {
			return fmt.Errorf("missing %s", strings.ToLower(key))
		}
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s %s", strings.ToLower(key), addr)
		}
	}

	if GetInt(HardwareAccountsLengthKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", HardwareAccountsLengthKey)
	}

	if GetDuration(WebhookRequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", WebhookRequestTimeoutKey)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if dbDir := GetDbDir(); dbDir != "" {
		if err := makeDirectoryIfNotExists(dbDir); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
