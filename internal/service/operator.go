// 文件路径: internal/service/operator.go
// 模块说明: 这是 internal 模块里的操作者身份逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

// Operator 表示一次调用的发起身份，所有写操作都必须显式携带。
type Operator struct {
	Username string
	IsSudo   bool
}

// SystemOperator 是内置的系统身份，拥有最高权限，数据库里有对应的保底账号。
var SystemOperator = Operator{Username: "system", IsSudo: true}

// CanManage 判断操作者能否管理指定用户名对应的管理员账号。
func (o Operator) CanManage(target string) bool {
	return o.IsSudo || o.Username == target
}

// IsSystem 判断是否为内置系统身份。
func (o Operator) IsSystem() bool {
	return o.Username == SystemOperator.Username
}
