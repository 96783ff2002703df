package coroio

import "github.com/joeycumines/go-coroio/internal/corelet"

// Start constructs the reactor, spawns and initially resumes the root
// coroutine running body, and drives the reactor until every coroutine has
// finished (spec §2 item 7 / §6 "start").
//
// Start returns body's error (or a recovered panic, wrapped), unlike the
// original mioco, which discards it — see SPEC_FULL.md §3 for why this
// Go port surfaces it instead.
func Start(body func(h *Handle) error, opts ...Option) error {
	cfg := newConfig(opts...)

	reactor, err := newReactor()
	if err != nil {
		return err
	}

	log := cfg.logger
	if log == nil {
		log = logger()
	}

	sh := &shared{
		sources: NewSourceSlab(cfg.slabCapacity),
		reactor: reactor,
		logger:  log,
	}
	d := &dispatcher{sh: sh}

	root := newCoroutine(sh)
	sh.coroutinesNo++
	handle := &Handle{coroutine: root}

	root.resume = corelet.Spawn(func(block func()) {
		root.block = block
		root.err = runBody(root, handle, body)
	}, nil)

	log.Debug().Log("coroio: initial resume")
	root.resume()
	d.afterResume(root)

	log.Debug().Log("coroio: entering reactor run loop")
	runErr := reactor.Run(cfg.pollTimeout, func(ev PollEvent) {
		d.dispatchReady(ev)
		sh.sources.Tick()
	}, func(wm WakeMessage) {
		d.dispatchNotify(wm)
		sh.sources.Tick()
	})
	closeErr := reactor.Close()

	if root.err != nil {
		return root.err
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}
