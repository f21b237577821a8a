package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/girisakar365/8085-mP/cpu"
)

const (
	defOrigin     = "0000H"
	defDataBase   = "C000H"
	defStepLimit  = cpu.STEP_LIMIT
	defStackDepth = cpu.STACK_LIMIT

	EnvVarPrefix = "SIM8085"
)

var CLIConfig *Config
var replacer = strings.NewReplacer(".", "_")

var ErrAddress = errors.New("address must be XXXXH")

type Config struct {
	Assembler *Assembler `mapstructure:"assembler" yaml:"assembler"`
	Runtime   *Runtime   `mapstructure:"runtime" yaml:"runtime"`
	Verbose   bool       `mapstructure:"verbose" yaml:"verbose"`
}

type Assembler struct {
	Origin   string `mapstructure:"origin" yaml:"origin"`
	DataBase string `mapstructure:"data_base" yaml:"data_base"`
}

type Runtime struct {
	StepLimit  int  `mapstructure:"step_limit" yaml:"step_limit"`
	StackDepth int  `mapstructure:"stack_depth" yaml:"stack_depth"`
	Blocks     bool `mapstructure:"blocks" yaml:"blocks"`
}

func DefaultConfig() *Config {
	return &Config{
		Assembler: &Assembler{
			Origin:   defOrigin,
			DataBase: defDataBase,
		},
		Runtime: &Runtime{
			StepLimit:  defStepLimit,
			StackDepth: defStackDepth,
			Blocks:     false,
		},
		Verbose: false,
	}
}

// NewConfig loads CLIConfig from the defaults, then cfgFile if not empty,
// then the SIM8085_* environment.
func NewConfig(cfgFile string) error {
	v := viper.New()

	CLIConfig = DefaultConfig()

	// set default values in viper.
	// Viper needs to know if a key exists in order to override it.
	// https://github.com/spf13/viper/issues/188
	if b, err := yaml.Marshal(DefaultConfig()); err != nil {
		return err
	} else {
		v.SetConfigType("yaml")
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			return err
		}
	}

	if cfgFile != "" {
		fi, err := os.Stat(cfgFile)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return fmt.Errorf("config file %s is a directory", cfgFile)
		}
		// overwrite values from config
		v.SetConfigFile(cfgFile)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("config file %s: %w", fi.Name(), err)
		}
	}

	// Use environment variables as final override
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvVarPrefix)
	v.SetEnvKeyReplacer(replacer)

	// Preload environment bindings so they are processed on load
	bindVars(v, reflect.TypeOf(*CLIConfig), "")
	return v.Unmarshal(CLIConfig)
}

func bindVars(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		tag = prefix + strings.ToUpper(tag)

		if field.Type.Kind() == reflect.Struct {
			bindVars(v, field.Type, tag+".")
		} else if field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct {
			bindVars(v, field.Type.Elem(), tag+".")
		} else if err := v.BindEnv(tag); err != nil {
			log.Printf("config: unable to bind environment variable %s: %v", replacer.Replace(tag), err)
		}
	}
}

// ParseAddress parses an XXXXH address.
func ParseAddress(text string) (addr uint16, err error) {
	text = strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(text)), "H")
	value, err := strconv.ParseUint(text, 16, 16)
	if err != nil {
		err = fmt.Errorf("%q: %w", text, ErrAddress)
		return
	}

	addr = uint16(value)

	return
}

// Origin returns the assembler origin address.
func (cfg *Config) Origin() (uint16, error) {
	return ParseAddress(cfg.Assembler.Origin)
}

// DataBase returns the address of DB bytes before any ORG.
func (cfg *Config) DataBase() (uint16, error) {
	return ParseAddress(cfg.Assembler.DataBase)
}
