package cil

// RootMap transforms a root during graph rewriting
type RootMap func(Root, *Assembly) Root

// NodeMap transforms a node during graph rewriting
type NodeMap func(Node, *Assembly) Node

// MapNode rebuilds a node bottom-up: children are mapped and re-interned
// first, then nodeMap is applied to the rebuilt node.
func (a *Assembly) MapNode(n NodeIdx, nodeMap NodeMap) NodeIdx {
	m := func(c NodeIdx) NodeIdx { return a.MapNode(c, nodeMap) }
	var rebuilt Node
	switch nn := a.Node(n).(type) {
	case ConstInt, ConstFloat, ConstBool, ConstString, LdLoc, LdLocA, LdArg, LdArgA, SizeOf:
		rebuilt = nn
	case LdInd:
		nn.Addr = m(nn.Addr)
		rebuilt = nn
	case LdObj:
		nn.Addr = m(nn.Addr)
		rebuilt = nn
	case LdField:
		nn.Addr = m(nn.Addr)
		rebuilt = nn
	case LdFieldAddr:
		nn.Addr = m(nn.Addr)
		rebuilt = nn
	case BinOp:
		nn.A = m(nn.A)
		nn.B = m(nn.B)
		rebuilt = nn
	case UnOp:
		nn.Value = m(nn.Value)
		rebuilt = nn
	case IntCast:
		nn.Value = m(nn.Value)
		rebuilt = nn
	case FloatCast:
		nn.Value = m(nn.Value)
		rebuilt = nn
	case PtrCast:
		nn.Value = m(nn.Value)
		rebuilt = nn
	case Call:
		nn.Args = a.mapList(nn.Args, nodeMap)
		rebuilt = nn
	default:
		panic("unreachable: unknown node variant")
	}
	return a.AllocNode(nodeMap(rebuilt, a))
}

func (a *Assembly) mapList(l NodeList, nodeMap NodeMap) NodeList {
	args := a.Nodes(l)
	for i, arg := range args {
		args[i] = a.MapNode(arg, nodeMap)
	}
	return a.AllocNodes(args)
}

// MapRoot rebuilds a root: every child node is mapped with MapNode, then
// rootMap is applied to the rebuilt root, which is re-interned.
func (a *Assembly) MapRoot(r RootIdx, rootMap RootMap, nodeMap NodeMap) RootIdx {
	m := func(c NodeIdx) NodeIdx { return a.MapNode(c, nodeMap) }
	var rebuilt Root
	switch rr := a.Root(r).(type) {
	case Nop, Break, ReThrow, SourceFileInfo, ExitSpecialRegion, VoidRet:
		rebuilt = rr
	case Branch:
		rr.Cond = a.mapCond(rr.Cond, m)
		rebuilt = rr
	case StLoc:
		rr.Value = m(rr.Value)
		rebuilt = rr
	case StArg:
		rr.Value = m(rr.Value)
		rebuilt = rr
	case StInd:
		rr.Addr = m(rr.Addr)
		rr.Value = m(rr.Value)
		rebuilt = rr
	case SetField:
		rr.Addr = m(rr.Addr)
		rr.Value = m(rr.Value)
		rebuilt = rr
	case InitObj:
		rr.Addr = m(rr.Addr)
		rebuilt = rr
	case Pop:
		rr.Value = m(rr.Value)
		rebuilt = rr
	case Ret:
		rr.Value = m(rr.Value)
		rebuilt = rr
	case CallRoot:
		rr.Args = a.mapList(rr.Args, nodeMap)
		rebuilt = rr
	case Throw:
		rr.Value = m(rr.Value)
		rebuilt = rr
	default:
		panic("unreachable: unknown root variant")
	}
	return a.AllocRoot(rootMap(rebuilt, a))
}

func (a *Assembly) mapCond(c BranchCond, m func(NodeIdx) NodeIdx) BranchCond {
	switch cc := c.(type) {
	case nil, Always:
		return Always{}
	case IfTrue:
		return IfTrue{Value: m(cc.Value)}
	case IfFalse:
		return IfFalse{Value: m(cc.Value)}
	case IfEq:
		return IfEq{A: m(cc.A), B: m(cc.B)}
	case IfNe:
		return IfNe{A: m(cc.A), B: m(cc.B)}
	}
	panic("unreachable: unknown branch condition")
}

// IdentityRoot is a RootMap that leaves roots unchanged
func IdentityRoot(r Root, _ *Assembly) Root { return r }

// IdentityNode is a NodeMap that leaves nodes unchanged
func IdentityNode(n Node, _ *Assembly) Node { return n }
