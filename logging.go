package zhap

import (
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/zhap/resolver"
	"log"
)

func (p *Platform) WithGoLogger(parentLogger *log.Logger) {
	p.WithLogWrapLogger(logwrap.New(golog.Wrap(parentLogger)))
}

func (p *Platform) WithLogWrapLogger(lw logwrap.Logger) {
	p.logger = lw
	p.resolver = resolver.New(p.resolver.Engine, p.resolver.Pairs, lw)
}
