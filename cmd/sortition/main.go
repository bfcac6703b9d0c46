package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/arbor-network/sortition/lib"
	"github.com/arbor-network/sortition/lib/crypto"
	"github.com/spf13/cobra"
)

const SoftwareVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "sortition",
	Short:   "sortition is a VDF-based proposer election tool",
	Version: SoftwareVersion,
}

var (
	config  = lib.Config{}
	l       = lib.LoggerI(nil)
	vrfKey  = crypto.PrivateKeyI(nil)
	dataDir = ""

	// prove / verify flags
	vrfInput, vdfInput, recordPath, publicKey, outPath string
	voteCount, totalVoteCount                          uint64
)

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", lib.DefaultDataDirPath(), "custom data directory location")
	for _, cmd := range []*cobra.Command{proveCmd, verifyCmd} {
		cmd.Flags().StringVar(&vrfInput, "vrf-input", "", "hex encoded round input for the VRF (required)")
		cmd.Flags().StringVar(&vdfInput, "vdf-input", "", "hex encoded message the VDF is evaluated over (required)")
		cmd.Flags().Uint64Var(&voteCount, "vote-count", 0, "the participant's vote count (required)")
		cmd.Flags().Uint64Var(&totalVoteCount, "total-vote-count", 0, "the total vote count of all participants (required)")
	}
	proveCmd.Flags().StringVar(&outPath, "out", "", "write the json record to this file instead of stdout")
	verifyCmd.Flags().StringVar(&recordPath, "record", "", "path to the json sortition record (required)")
	verifyCmd.Flags().StringVar(&publicKey, "public-key", "", "hex encoded BLS public key of the prover (required)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "generate a fresh VRF key file in the data directory",
	Run: func(cmd *cobra.Command, args []string) {
		setup()
		writeToConsole(vrfKey.PublicKey().String(), nil)
	},
}

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "run the sortition for a round and emit the record as json",
	Run: func(cmd *cobra.Command, args []string) {
		setup()
		Prove()
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "verify a sortition record against public round data",
	Run: func(cmd *cobra.Command, args []string) {
		setup()
		Verify()
	},
}

// Prove() runs the full proving flow: VRF, difficulty derivation, and the blocking VDF
// step, cancellable with an interrupt signal
func Prove() {
	vrfIn, vdfIn := mustHex("vrf-input", vrfInput), mustHex("vdf-input", vdfInput)
	// start the telemetry server if enabled
	metrics := lib.NewMetricsServer(config.MetricsConfig)
	metrics.Start()
	defer metrics.Stop()
	service := lib.NewVDFService(config.SortitionParams, vrfKey, metrics, l)
	// run the blocking prove step off the main goroutine so an interrupt can cancel it
	done := make(chan struct{})
	go func() {
		service.Run(vrfIn, vdfIn, voteCount, totalVoteCount)
		close(done)
	}()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGABRT)
	select {
	case s := <-stop:
		l.Infof("Exit command %s received", s)
		// cancel the in-flight proving step and discard the partial work
		service.Finish()
		// wait for the prover goroutine to unwind
		<-done
		os.Exit(1)
	case <-done:
	}
	record := service.Finish()
	if record == nil {
		l.Fatal("No sortition record was produced")
	}
	if outPath != "" {
		if e := lib.SaveJSONToFile(record, "", outPath); e != nil {
			l.Fatal(e.Error())
		}
		l.Infof("Wrote the sortition record to %s", outPath)
		return
	}
	writeToConsole(record, nil)
}

// Verify() checks a json sortition record against the round inputs and public key
func Verify() {
	vrfIn, vdfIn := mustHex("vrf-input", vrfInput), mustHex("vdf-input", vdfInput)
	metrics := lib.NewMetricsServer(config.MetricsConfig)
	metrics.Start()
	defer metrics.Stop()
	record := new(lib.VdfSortition)
	if err := lib.NewJSONFromFile(record, "", recordPath); err != nil {
		l.Fatal(err.Error())
	}
	pub, err := crypto.NewBLSPublicKeyFromString(publicKey)
	if err != nil {
		l.Fatal(err.Error())
	}
	if e := record.Verify(config.SortitionParams, vrfIn, pub, vdfIn, voteCount, totalVoteCount); e != nil {
		metrics.IncVerifyFailed(e.Code())
		l.Fatal(e.Error())
	}
	writeToConsole("valid", nil)
}

// setup() initializes the data directory, logger, and key file for a command run
func setup() {
	config, vrfKey = InitializeDataDirectory(dataDir, lib.NewDefaultLogger())
	l = lib.NewLogger(lib.LoggerConfig{Level: config.GetLogLevel()}, config.DataDirPath)
}

// InitializeDataDirectory() ensures the data directory exists and holds a config file
// and a VRF key file, creating defaults for whichever are missing
func InitializeDataDirectory(dataDirPath string, log lib.LoggerI) (c lib.Config, vrfPrivateKey crypto.PrivateKeyI) {
	if err := os.MkdirAll(dataDirPath, os.ModePerm); err != nil {
		panic(err)
	}
	configFilePath := filepath.Join(dataDirPath, lib.ConfigFilePath)
	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		log.Infof("Creating %s file", lib.ConfigFilePath)
		if err = lib.DefaultConfig().WriteToFile(configFilePath); err != nil {
			panic(err)
		}
	}
	keyFilePath := filepath.Join(dataDirPath, lib.KeyFilePath)
	if _, err := os.Stat(keyFilePath); errors.Is(err, os.ErrNotExist) {
		blsPrivateKey, _ := crypto.NewBLSPrivateKey()
		log.Infof("Creating %s file", lib.KeyFilePath)
		if err = crypto.PrivateKeyToFile(blsPrivateKey, keyFilePath); err != nil {
			panic(err)
		}
	}
	vrfPrivateKey, err := crypto.NewBLSPrivateKeyFromFile(keyFilePath)
	if err != nil {
		panic(err)
	}
	c, err = lib.NewConfigFromFile(configFilePath)
	if err != nil {
		panic(err)
	}
	c.DataDirPath = dataDirPath
	return
}

// mustHex() decodes a required hex flag or exits with a usage error
func mustHex(name, value string) []byte {
	if value == "" {
		l.Fatalf("--%s is required", name)
	}
	bz, err := lib.StringToBytes(value)
	if err != nil {
		l.Fatal(err.Error())
	}
	return bz
}

func writeToConsole(a any, err error) {
	if err != nil {
		l.Fatal(err.Error())
	}
	switch a.(type) {
	case string, *string:
		fmt.Println(a)
	default:
		bz, e := lib.MarshalJSONIndent(a)
		if e != nil {
			l.Fatal(e.Error())
		}
		fmt.Println(string(bz))
	}
}
