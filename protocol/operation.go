package protocol

import (
	"xdao.co/kpack/pack"
	"xdao.co/kpack/thunk"
)

// OperationValue is implemented by the members of Operation.
type OperationValue interface {
	pack.Value
	isOperation()
}

// Operation is a variant over, in wire order: ReservedOperation,
// NopOperation, UploadContractOperation, CallContractOperation,
// SetSystemCallOperation.
type Operation struct {
	Value OperationValue
}

// The unions are assigned in init because member codecs refer back to them.
var (
	operations        *pack.Union[OperationValue]
	systemCallTargets *pack.Union[SystemCallTargetValue]
)

func init() {
	operations = pack.NewUnion[OperationValue]("operation",
		pack.Member[OperationValue, ReservedOperation]("reserved_operation"),
		pack.Member[OperationValue, NopOperation]("nop_operation"),
		pack.Member[OperationValue, UploadContractOperation]("upload_contract_operation"),
		pack.Member[OperationValue, CallContractOperation]("call_contract_operation"),
		pack.Member[OperationValue, SetSystemCallOperation]("set_system_call_operation"),
	)
	systemCallTargets = pack.NewUnion[SystemCallTargetValue]("system_call_target",
		pack.Member[SystemCallTargetValue, ReservedTarget]("reserved_target"),
		pack.Member[SystemCallTargetValue, ThunkTarget]("thunk_id"),
		pack.Member[SystemCallTargetValue, ContractCallBundle]("system_call_bundle"),
	)
}

// OperationName returns the member name of op's value.
func OperationName(op Operation) string {
	i := operations.Index(op.Value)
	if i < 0 {
		return ""
	}
	return operations.MemberName(i)
}

func (o Operation) EncodePack(w *pack.Writer) { operations.Encode(w, o.Value) }

func (o *Operation) DecodePack(r *pack.Reader, d pack.Depth) error {
	v, err := operations.Decode(r, d)
	if err != nil {
		return err
	}
	o.Value = v
	return nil
}

func (o Operation) EncodeJSON() any { return operations.EncodeJSON(o.Value) }

func (o *Operation) DecodeJSON(node any, d pack.Depth) error {
	v, err := operations.DecodeJSON(node, d)
	if err != nil {
		return err
	}
	o.Value = v
	return nil
}

type ReservedOperation struct{}

func (ReservedOperation) EncodePack(*pack.Writer) {}

func (*ReservedOperation) DecodePack(*pack.Reader, pack.Depth) error { return nil }

func (ReservedOperation) EncodeJSON() any { return map[string]any{} }

func (*ReservedOperation) DecodeJSON(node any, _ pack.Depth) error {
	_, err := pack.JSONObject(node)
	return err
}

func (*ReservedOperation) isOperation() {}

type NopOperation struct {
	Extensions pack.VariableBlob
}

func (n NopOperation) EncodePack(w *pack.Writer) { n.Extensions.EncodePack(w) }

func (n *NopOperation) DecodePack(r *pack.Reader, d pack.Depth) error {
	return n.Extensions.DecodePack(r, d)
}

func (n NopOperation) EncodeJSON() any {
	return map[string]any{"extensions": n.Extensions.EncodeJSON()}
}

func (n *NopOperation) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	return pack.DecodeField(obj, "extensions", &n.Extensions, d)
}

func (*NopOperation) isOperation() {}

type UploadContractOperation struct {
	ContractID pack.FixedBlob20
	Bytecode   pack.VariableBlob
}

func (u UploadContractOperation) EncodePack(w *pack.Writer) {
	u.ContractID.EncodePack(w)
	u.Bytecode.EncodePack(w)
}

func (u *UploadContractOperation) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := u.ContractID.DecodePack(r, d); err != nil {
		return err
	}
	return u.Bytecode.DecodePack(r, d)
}

func (u UploadContractOperation) EncodeJSON() any {
	return map[string]any{
		"contract_id": u.ContractID.EncodeJSON(),
		"bytecode":    u.Bytecode.EncodeJSON(),
	}
}

func (u *UploadContractOperation) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "contract_id", &u.ContractID, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "bytecode", &u.Bytecode, d)
}

func (*UploadContractOperation) isOperation() {}

type CallContractOperation struct {
	ContractID pack.FixedBlob20
	EntryPoint pack.Uint32
	Args       pack.VariableBlob
}

func (c CallContractOperation) EncodePack(w *pack.Writer) {
	c.ContractID.EncodePack(w)
	c.EntryPoint.EncodePack(w)
	c.Args.EncodePack(w)
}

func (c *CallContractOperation) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := c.ContractID.DecodePack(r, d); err != nil {
		return err
	}
	if err := c.EntryPoint.DecodePack(r, d); err != nil {
		return err
	}
	return c.Args.DecodePack(r, d)
}

func (c CallContractOperation) EncodeJSON() any {
	return map[string]any{
		"contract_id": c.ContractID.EncodeJSON(),
		"entry_point": c.EntryPoint.EncodeJSON(),
		"args":        c.Args.EncodeJSON(),
	}
}

func (c *CallContractOperation) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "contract_id", &c.ContractID, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "entry_point", &c.EntryPoint, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "args", &c.Args, d)
}

func (*CallContractOperation) isOperation() {}

type SetSystemCallOperation struct {
	CallID thunk.ID
	Target SystemCallTarget
}

func (s SetSystemCallOperation) EncodePack(w *pack.Writer) {
	s.CallID.EncodePack(w)
	s.Target.EncodePack(w)
}

func (s *SetSystemCallOperation) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := s.CallID.DecodePack(r, d); err != nil {
		return err
	}
	return s.Target.DecodePack(r, d)
}

func (s SetSystemCallOperation) EncodeJSON() any {
	return map[string]any{
		"call_id": s.CallID.EncodeJSON(),
		"target":  s.Target.EncodeJSON(),
	}
}

func (s *SetSystemCallOperation) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "call_id", &s.CallID, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "target", &s.Target, d)
}

func (*SetSystemCallOperation) isOperation() {}

// SystemCallTargetValue is implemented by the members of SystemCallTarget.
type SystemCallTargetValue interface {
	pack.Value
	isSystemCallTarget()
}

// SystemCallTarget is a variant over ReservedTarget, ThunkTarget and
// ContractCallBundle.
type SystemCallTarget struct {
	Value SystemCallTargetValue
}

func (s SystemCallTarget) EncodePack(w *pack.Writer) { systemCallTargets.Encode(w, s.Value) }

func (s *SystemCallTarget) DecodePack(r *pack.Reader, d pack.Depth) error {
	v, err := systemCallTargets.Decode(r, d)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}

func (s SystemCallTarget) EncodeJSON() any { return systemCallTargets.EncodeJSON(s.Value) }

func (s *SystemCallTarget) DecodeJSON(node any, d pack.Depth) error {
	v, err := systemCallTargets.DecodeJSON(node, d)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}

type ReservedTarget struct{}

func (ReservedTarget) EncodePack(*pack.Writer) {}

func (*ReservedTarget) DecodePack(*pack.Reader, pack.Depth) error { return nil }

func (ReservedTarget) EncodeJSON() any { return map[string]any{} }

func (*ReservedTarget) DecodeJSON(node any, _ pack.Depth) error {
	_, err := pack.JSONObject(node)
	return err
}

func (*ReservedTarget) isSystemCallTarget() {}

// ThunkTarget routes a system call to a built-in operation.
type ThunkTarget struct {
	ID thunk.ID
}

func (t ThunkTarget) EncodePack(w *pack.Writer) { t.ID.EncodePack(w) }

func (t *ThunkTarget) DecodePack(r *pack.Reader, d pack.Depth) error { return t.ID.DecodePack(r, d) }

func (t ThunkTarget) EncodeJSON() any { return t.ID.EncodeJSON() }

func (t *ThunkTarget) DecodeJSON(node any, d pack.Depth) error { return t.ID.DecodeJSON(node, d) }

func (*ThunkTarget) isSystemCallTarget() {}

// ContractCallBundle routes a system call to a contract entry point.
type ContractCallBundle struct {
	ContractID pack.FixedBlob20
	EntryPoint pack.Uint32
}

func (c ContractCallBundle) EncodePack(w *pack.Writer) {
	c.ContractID.EncodePack(w)
	c.EntryPoint.EncodePack(w)
}

func (c *ContractCallBundle) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := c.ContractID.DecodePack(r, d); err != nil {
		return err
	}
	return c.EntryPoint.DecodePack(r, d)
}

func (c ContractCallBundle) EncodeJSON() any {
	return map[string]any{
		"contract_id": c.ContractID.EncodeJSON(),
		"entry_point": c.EntryPoint.EncodeJSON(),
	}
}

func (c *ContractCallBundle) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "contract_id", &c.ContractID, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "entry_point", &c.EntryPoint, d)
}

func (*ContractCallBundle) isSystemCallTarget() {}
