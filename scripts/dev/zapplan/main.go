package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/vultisig/zap-planner/config"
	"github.com/vultisig/zap-planner/internal/types"
)

var (
	chainID     uint64
	inputToken  string
	inputAmount string
	outputToken string
	user        string
	configName  string
)

func main() {
	flag.Uint64Var(&chainID, "chain", 10, "chain id")
	flag.StringVar(&inputToken, "in", "", "input token address")
	flag.StringVar(&inputAmount, "amount", "", "input amount in raw units")
	flag.StringVar(&outputToken, "out", "", "output token or vault address")
	flag.StringVar(&user, "user", "", "user address")
	flag.StringVar(&configName, "config", "config", "config name")
	flag.Parse()

	if inputToken == "" || outputToken == "" || inputAmount == "" || user == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.ReadConfig(configName)
	if err != nil {
		panic(err)
	}

	host := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Zap plan - %s/zap/plan", host)

	reqBytes, err := json.Marshal(types.ZapPlanRequestDto{
		ChainID:     chainID,
		InputToken:  inputToken,
		InputAmount: inputAmount,
		OutputToken: outputToken,
		User:        user,
	})
	if err != nil {
		panic(err)
	}
	resp, err := http.Post(fmt.Sprintf("%s/zap/plan", host), "application/json", bytes.NewBuffer(reqBytes))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	fmt.Printf(" - %d\n", resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
