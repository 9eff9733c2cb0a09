package config

import (
	"os"

	"github.com/hotdogs-ns/hns/common"
	"gopkg.in/yaml.v3"
)

var log = common.NewLog("config")

func (c *Config) runJobs() {
	c.scheduler.Every(1).Minute().SingletonMode().Do(c.updateIPWhiteList)

	c.scheduler.StartAsync()
}

func (c *Config) updateIPWhiteList() {
	by, err := os.ReadFile(c.path)
	if err != nil {
		log.Error("read config file", "path", c.path, "err", err)
		return
	}
	fresh := struct {
		IpWhitelist []string `yaml:"ipWhitelist"`
	}{}
	if err := yaml.Unmarshal(by, &fresh); err != nil {
		log.Error("parse config file", "path", c.path, "err", err)
		return
	}
	c.setWhitelist(fresh.IpWhitelist)
}
