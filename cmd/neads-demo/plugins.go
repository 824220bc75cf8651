package main

import "github.com/gitrdm/neads/plugin"

func constSignature() plugin.Signature {
	sig, err := plugin.NewSignature(plugin.Param{Name: "n", Kind: plugin.PositionalOrKeyword})
	if err != nil {
		panic(err)
	}
	return sig
}

func constPlugin(name string) plugin.Plugin {
	return plugin.Plugin{
		ID:        plugin.ID{Name: name, Version: "1"},
		Signature: constSignature(),
		Func: func(args map[string]any) (any, error) {
			return args["n"], nil
		},
	}
}

func doublePlugin() plugin.Plugin {
	sig, err := plugin.NewSignature(plugin.Param{Name: "n", Kind: plugin.PositionalOrKeyword})
	if err != nil {
		panic(err)
	}
	return plugin.Plugin{
		ID:        plugin.ID{Name: "double", Version: "1"},
		Signature: sig,
		Func: func(args map[string]any) (any, error) {
			return args["n"].(int64) * 2, nil
		},
	}
}

func addPlugin() plugin.Plugin {
	sig, err := plugin.NewSignature(
		plugin.Param{Name: "a", Kind: plugin.PositionalOrKeyword},
		plugin.Param{Name: "b", Kind: plugin.PositionalOrKeyword},
	)
	if err != nil {
		panic(err)
	}
	return plugin.Plugin{
		ID:        plugin.ID{Name: "add", Version: "1"},
		Signature: sig,
		Func: func(args map[string]any) (any, error) {
			return args["a"].(int64) + args["b"].(int64), nil
		},
	}
}
