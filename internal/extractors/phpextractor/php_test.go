package phpextractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceSrc = `<?php
namespace App\Service;

use App\Model\User;
use App\Repository\UserRepository as Repo;
use Psr\Log\LoggerInterface, Psr\Log\NullLogger;
use function App\Support\helper;
use const App\Support\VERSION;
use App\Http\{Request, Response as Resp};

/**
 * class Ghost extends Nothing
 */
abstract class BaseService implements \Countable
{
}

final class UserService extends BaseService implements Contracts\Finder, Auditable
{
    public function run() {
        $msg = "use Fake\Thing;";
        return array_map(function ($u) use ($msg) { return $u; }, []);
    }
}

interface Auditable extends \JsonSerializable
{
}
`

func TestExtract_Symbols(t *testing.T) {
	s, err := New().Extract("src/Service/UserService.php", []byte(serviceSrc))
	require.NoError(t, err)

	assert.Equal(t, `App\Service`, s.Namespace)
	assert.Equal(t, 1, s.Classes, "final class counts as ordinary")
	assert.Equal(t, 1, s.Abstracts)
	assert.Equal(t, 1, s.Interfaces)
	assert.Equal(t, 3, s.Total())

	assert.Equal(t, []string{
		`App\Model\User`,
		`App\Repository\UserRepository`,
		`Psr\Log\LoggerInterface`,
		`Psr\Log\NullLogger`,
		`App\Support\helper`,
		`App\Support\VERSION`,
		`App\Http\Request`,
		`App\Http\Response`,
	}, s.Imports)

	assert.Equal(t, []string{
		`Countable`,
		`App\Service\BaseService`,
		`Contracts\Finder`,
		`App\Service\Auditable`,
		`JsonSerializable`,
	}, s.Parents)
}

func TestExtract_GlobalNamespace(t *testing.T) {
	s, err := New().Extract("index.php", []byte("<?php\nclass Kernel extends BaseKernel {}\n"))
	require.NoError(t, err)

	assert.Empty(t, s.Namespace)
	assert.Equal(t, []string{"BaseKernel"}, s.Parents)
}

func TestNamespace_BracedForm(t *testing.T) {
	assert.Equal(t, `Vendor\Pkg`, Namespace("namespace Vendor\\Pkg {\n}\n"))
	assert.Equal(t, "", Namespace("$x = 1;"))
}

func TestExtract_UseSharingALine(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"after open tag", "<?php use App\\B\\Thing;\nclass A {}\n", []string{`App\B\Thing`}},
		{"after namespace", "<?php\nnamespace App\\A; use App\\B\\Thing;\n", []string{`App\B\Thing`}},
		{"consecutive statements", "<?php\nnamespace App\\A; use App\\B; use App\\C;\n", []string{`App\B`, `App\C`}},
		{"trait use after brace", "<?php\nclass A { use Traits\\Loggable;\n}\n", []string{`Traits\Loggable`}},
		{"closure capture ignored", "<?php\n$f = function () use ($x) { return $x; };\n", nil},
		{"variable named use ignored", "<?php\n$use = 1; $x->use ($y);\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New().Extract("A.php", []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Imports)
		})
	}
}

func TestExtract_IgnoresHeredocBody(t *testing.T) {
	src := "<?php\nnamespace App\\A;\n\n$tpl = <<<PHP\nuse Fake\\Dep;\nclass Ghost {}\nPHP;\n\nclass A {}\n"
	s, err := New().Extract("A.php", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Classes)
	assert.Empty(t, s.Imports)
}

func TestParseUse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"plain", `App\A`, []string{`App\A`}},
		{"leading separator", `\App\A`, []string{`App\A`}},
		{"alias", `App\A as B`, []string{`App\A`}},
		{"list", `App\A, App\B as C`, []string{`App\A`, `App\B`}},
		{"function", `function App\f`, []string{`App\f`}},
		{"group", `App\{A, B\C as D}`, []string{`App\A`, `App\B\C`}},
		{"group with member kinds", `App\{function f, const X}`, []string{`App\f`, `App\X`}},
		{"closure capture", `($x)`, nil},
		{"trait block", "A, B {\n A::x insteadof B", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseUse(tt.body))
		})
	}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"empty", "", 1},
		{"if and elseif", "if ($a) {} elseif ($b) {}", 3},
		{"loops", "for ($i=0;;) {} foreach ($x as $y) {} while (true) {}", 4},
		{"switch", "switch ($x) { case 1: break; case 2: break; }", 3},
		{"catch", "try {} catch (E $e) {}", 2},
		{"logical", "if ($a && $b || $c) {}", 4},
		{"ternary", "$x = $a ? 1 : 2;", 2},
		{"null coalescing not ternary", "$x = $a ?? $b;", 1},
		{"nullsafe not ternary", "$x = $a?->b;", 1},
		{"tags not ternary", "<?php $x = 1; ?>", 1},
		{"case-insensitive keywords", "IF ($a) {}", 2},
		{"identifier containing keyword", "$notif = verify($x);", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Complexity(tt.src))
		})
	}
}

func TestEffectiveLOC(t *testing.T) {
	assert.Equal(t, 0, EffectiveLOC(""))
	assert.Equal(t, 2, EffectiveLOC("a\n\n   \n\tb\n"))
	assert.Equal(t, 3, EffectiveLOC("a\r\nb\rc"))
}
