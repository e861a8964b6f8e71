// Implements a static analysis tool that checks for:
// 1. Usage of built-in panic() function anywhere in the code
// 2. Usage of log.Fatal()/log.Fatalf()/log.Fatalln() or os.Exit() outside of main function in main package
// 3. Usage of the zap Fatal* and Panic* logging methods outside of main function in main package
package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const zapPackage = "go.uber.org/zap"

// Analyzer is the main analyzer for detecting improper usage of panic and exit functions
var Analyzer = &analysis.Analyzer{
	Name: "panicexit",
	Doc:  "reports usage of panic and process-terminating calls outside of main function in main package",
	Run:  run,
	Requires: []*analysis.Analyzer{
		inspect.Analyzer,
	},
}

// run executes the analysis logic
func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
		(*ast.FuncDecl)(nil),
	}

	// inMain is true while walking the body of func main in package main
	inMain := false

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		switch node := n.(type) {
		case *ast.FuncDecl:
			inMain = pass.Pkg.Name() == "main" && node.Recv == nil && node.Name.Name == "main"
		case *ast.CallExpr:
			if ident, ok := node.Fun.(*ast.Ident); ok && ident.Name == "panic" {
				if _, builtin := pass.TypesInfo.Uses[ident].(*types.Builtin); builtin {
					pass.Reportf(ident.Pos(), "found usage of panic")
				}
			}
			if inMain {
				return
			}
			sel, ok := node.Fun.(*ast.SelectorExpr)
			if !ok {
				return
			}
			if ident, ok := sel.X.(*ast.Ident); ok {
				switch name := ident.Name + "." + sel.Sel.Name; name {
				case "log.Fatal", "log.Fatalf", "log.Fatalln", "os.Exit":
					pass.Reportf(node.Pos(), "found usage of %s outside of main function", name)
					return
				}
			}
			if isZapTerminating(pass, sel) {
				pass.Reportf(node.Pos(), "found usage of zap %s outside of main function", sel.Sel.Name)
			}
		}
	})

	return nil, nil
}

// isZapTerminating reports whether sel is a Fatal* or Panic* method of a zap logger.
func isZapTerminating(pass *analysis.Pass, sel *ast.SelectorExpr) bool {
	name := sel.Sel.Name
	if !strings.HasPrefix(name, "Fatal") && !strings.HasPrefix(name, "Panic") {
		return false
	}
	selection, ok := pass.TypesInfo.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return false
	}
	recv := selection.Recv()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}
	return named.Obj().Pkg().Path() == zapPackage
}
