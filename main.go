package main

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/OdyseeTeam/blk-headers/chain"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) != 2 {
		logrus.Fatalf("usage: %s <height>", path.Base(os.Args[0]))
	}

	height, err := parseHeight(os.Args[1])
	if err != nil {
		logrus.Fatalf("%+v", err)
	}

	header, err := headerAt(chain.Config{}, height)
	if err != nil {
		logrus.Fatalf("%+v", err)
	}

	fmt.Printf("Block: %d has hash: %s\n", height, chain.ReversedHex(header.PrevBlockHash[:]))
}

func parseHeight(arg string) (int, error) {
	height, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Wrap(err, "height must be a non-negative integer")
	}
	if height < 0 {
		return 0, errors.Newf("height must be a non-negative integer, got %d", height)
	}
	return height, nil
}

// headerAt opens the block file just long enough to walk to height.
func headerAt(config chain.Config, height int) (*chain.Header, error) {
	bf, err := chain.Open(config)
	if err != nil {
		return nil, err
	}
	defer func() {
		err := bf.Close()
		if err != nil {
			logrus.Errorf("%+v", err)
		}
	}()

	return bf.HeaderAt(height)
}
